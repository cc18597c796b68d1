package model

// Show is a tracked TV show and how many of its episodes have been
// watched.  It is the only record kept by the service.
//
// Fields:
//
//	ID           – identifier assigned by the store on creation; never changes.
//	Name         – display name of the show.
//	EpisodesSeen – number of episodes watched so far.
type Show struct {
    ID           int64  `json:"id"`            // shows.id
    Name         string `json:"name"`          // shows.name
    EpisodesSeen int    `json:"episodes_seen"` // shows.episodes_seen
}

// ShowPatch is a sparse update for a Show.  A nil field means "leave the
// current value alone", so a single patch covers every combination of
// supplied form fields.
type ShowPatch struct {
    Name         *string
    EpisodesSeen *int
}

// Empty reports whether the patch carries no fields at all.
func (p ShowPatch) Empty() bool {
    return p.Name == nil && p.EpisodesSeen == nil
}

// Apply returns a copy of s with the supplied fields of p merged in.  The ID
// is never touched.
func (p ShowPatch) Apply(s Show) Show {
    if p.Name != nil {
        s.Name = *p.Name
    }
    if p.EpisodesSeen != nil {
        s.EpisodesSeen = *p.EpisodesSeen
    }
    return s
}

// Fields returns the patch as a column/value map restricted to the supplied
// fields.  SQL and redis backends use it to build partial updates.
func (p ShowPatch) Fields() map[string]any {
    out := make(map[string]any, 2)
    if p.Name != nil {
        out["name"] = *p.Name
    }
    if p.EpisodesSeen != nil {
        out["episodes_seen"] = *p.EpisodesSeen
    }
    return out
}

// ToMap renders the show as a plain mapping, which is the shape the
// response envelope expects for single-record results.
func (s Show) ToMap() map[string]any {
    return map[string]any{
        "id":            s.ID,
        "name":          s.Name,
        "episodes_seen": s.EpisodesSeen,
    }
}
