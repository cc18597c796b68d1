package handler // handler contains the demonstration endpoints

import (
    "net/http" // http defines status codes

    "github.com/labstack/echo/v4" // echo provides the request context
)

// Hello answers GET / with a fixed greeting.
func Hello(c echo.Context) error {
    return respond(c, http.StatusOK, "", map[string]any{"content": "hello world!"}) // static payload
}

// Mirror answers GET /mirror/:name by echoing the path segment.
func Mirror(c echo.Context) error {
    name := c.Param("name")                                            // path segment as received
    return respond(c, http.StatusOK, "", map[string]any{"name": name}) // echo it back
}
