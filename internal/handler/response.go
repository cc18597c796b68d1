package handler // handler contains the HTTP handlers of the show tracker

import (
    "github.com/labstack/echo/v4" // echo renders the JSON body
)

// Envelope is the uniform body of every response.  Result maps one
// descriptive key (or the fields of a single record) to the payload and is
// null when a response carries no data.
type Envelope struct {
    Code    int            `json:"code"`
    Success bool           `json:"success"`
    Message string         `json:"message"`
    Result  map[string]any `json:"result"`
}

// NewEnvelope wraps result with status and message.  Success is derived
// from the status and can never disagree with it.
func NewEnvelope(result map[string]any, status int, message string) Envelope {
    return Envelope{
        Code:    status,                        // HTTP status echoed in the body
        Success: status >= 200 && status < 300, // derived, never passed in
        Message: message,                       // human-readable, may be empty
        Result:  result,                        // nil encodes as null
    }
}

// respond writes the envelope using its code as the HTTP status.
func respond(c echo.Context, status int, message string, result map[string]any) error {
    return c.JSON(status, NewEnvelope(result, status, message)) // body code and HTTP status always agree
}
