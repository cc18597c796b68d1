package repository

import (
    "context"
    "fmt"
    "sort"
    "strconv"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/show-tracker/internal/model"
)

// defaultRedisPrefix namespaces all show keys in Redis.
const defaultRedisPrefix = "showtracker:"

// RedisStore keeps each show in its own hash and tracks ids in a sorted set:
//
//   - {prefix}seq       – INCR counter used to assign ids.
//   - {prefix}ids       – sorted set, member = score = show id.
//   - {prefix}show:{id} – hash with fields name and episodes_seen.
//
// Create and update run as Lua scripts so the id set and the hash never
// disagree.
type RedisStore struct {
    client *redis.Client
    seqKey string
    idsKey string
    prefix string
}

// createShow assigns (or honours) an id and writes the hash and index.
//
// KEYS[1] = seq, KEYS[2] = ids
// ARGV[1] = requested id (0 = assign), ARGV[2] = name, ARGV[3] = episodes_seen,
// ARGV[4] = hash key prefix
var createShow = redis.NewScript(`
local id = tonumber(ARGV[1])
if id == 0 then
    id = redis.call('INCR', KEYS[1])
else
    local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
    if id > cur then
        redis.call('SET', KEYS[1], id)
    end
end
redis.call('HSET', ARGV[4] .. id, 'name', ARGV[2], 'episodes_seen', ARGV[3])
redis.call('ZADD', KEYS[2], id, id)
return id
`)

// patchShow writes the supplied field/value pairs only when the hash exists.
//
// KEYS[1] = show hash
// ARGV = field, value, field, value, ...
// Returns 1 when updated, 0 when the show does not exist.
var patchShow = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
    return 0
end
if #ARGV > 0 then
    redis.call('HSET', KEYS[1], unpack(ARGV))
end
return 1
`)

// NewRedisStore wraps an already connected client.  An empty prefix falls
// back to "showtracker:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
    if prefix == "" {
        prefix = defaultRedisPrefix
    }
    return &RedisStore{
        client: client,
        seqKey: prefix + "seq",
        idsKey: prefix + "ids",
        prefix: prefix + "show:",
    }
}

func (r *RedisStore) showKey(id int64) string {
    return r.prefix + strconv.FormatInt(id, 10)
}

func (r *RedisStore) List(ctx context.Context) ([]model.Show, error) {
    ids, err := r.client.ZRange(ctx, r.idsKey, 0, -1).Result()
    if err != nil {
        return nil, fmt.Errorf("list show ids: %w", err)
    }
    if len(ids) == 0 {
        return []model.Show{}, nil
    }

    pipe := r.client.Pipeline()
    cmds := make([]*redis.MapStringStringCmd, len(ids))
    parsed := make([]int64, len(ids))
    for i, raw := range ids {
        id, err := strconv.ParseInt(raw, 10, 64)
        if err != nil {
            return nil, fmt.Errorf("corrupt show id %q: %w", raw, err)
        }
        parsed[i] = id
        cmds[i] = pipe.HGetAll(ctx, r.showKey(id))
    }
    if _, err := pipe.Exec(ctx); err != nil {
        return nil, fmt.Errorf("list shows: %w", err)
    }

    out := make([]model.Show, 0, len(ids))
    for i, cmd := range cmds {
        h := cmd.Val()
        if len(h) == 0 {
            // index entry without a hash; skip it
            continue
        }
        s, err := showFromHash(parsed[i], h)
        if err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (r *RedisStore) GetByID(ctx context.Context, id int64) (model.Show, error) {
    h, err := r.client.HGetAll(ctx, r.showKey(id)).Result()
    if err != nil {
        return model.Show{}, fmt.Errorf("get show %d: %w", id, err)
    }
    if len(h) == 0 {
        return model.Show{}, ErrShowNotFound
    }
    return showFromHash(id, h)
}

func (r *RedisStore) Create(ctx context.Context, s model.Show) (model.Show, error) {
    id, err := createShow.Run(ctx, r.client, []string{r.seqKey, r.idsKey},
        s.ID, s.Name, s.EpisodesSeen, r.prefix,
    ).Int64()
    if err != nil {
        return model.Show{}, fmt.Errorf("create show: %w", err)
    }
    s.ID = id
    return s, nil
}

func (r *RedisStore) UpdateByID(ctx context.Context, id int64, p model.ShowPatch) (model.Show, error) {
    fields := p.Fields()
    args := make([]any, 0, 2*len(fields))
    for k, v := range fields {
        args = append(args, k, v)
    }
    ok, err := patchShow.Run(ctx, r.client, []string{r.showKey(id)}, args...).Int()
    if err != nil {
        return model.Show{}, fmt.Errorf("update show %d: %w", id, err)
    }
    if ok == 0 {
        return model.Show{}, ErrShowNotFound
    }
    return r.GetByID(ctx, id)
}

func (r *RedisStore) DeleteByID(ctx context.Context, id int64) error {
    var del *redis.IntCmd
    _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
        del = pipe.Del(ctx, r.showKey(id))
        pipe.ZRem(ctx, r.idsKey, strconv.FormatInt(id, 10))
        return nil
    })
    if err != nil {
        return fmt.Errorf("delete show %d: %w", id, err)
    }
    if del.Val() == 0 {
        return ErrShowNotFound
    }
    return nil
}

// Close closes the redis client.
func (r *RedisStore) Close() error {
    return r.client.Close()
}

func showFromHash(id int64, h map[string]string) (model.Show, error) {
    eps, err := strconv.Atoi(h["episodes_seen"])
    if err != nil {
        return model.Show{}, fmt.Errorf("corrupt episodes_seen for show %d: %w", id, err)
    }
    return model.Show{ID: id, Name: h["name"], EpisodesSeen: eps}, nil
}
