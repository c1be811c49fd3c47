// Package swagger holds the generated OpenAPI document for the operator API.
// Regenerate with: swag init -g cmd/prism/main.go -o api/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/configurations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["configurations"],
                "summary": "List configurations",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["configurations"],
                "summary": "Create a weighting configuration",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/configurations/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["configurations"],
                "summary": "Fetch one configuration",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/configurations/{name}/activate": {
            "post": {
                "tags": ["configurations"],
                "summary": "Activate a configuration for its age group",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/pipeline/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "List recent batch runs",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Trigger an out-of-schedule pipeline run",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/pipeline/runs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Fetch one batch run",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "List a student's rating history",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/results/latest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Fetch a student's latest rating",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/analytics/rollups": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "List daily band distributions",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Edusight Prism API",
	Description:      "Operator API for the Edusight Prism wellbeing rating service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
