// Package docs registers the gateway's OpenAPI document with swag.
package docs

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
        "/api/chat": {
            "post": {
                "description": "Streams a chat completion. The system prompt is chosen from the optional system hint.",
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "summary": "Stream a chat completion",
                "parameters": [
                    {
                        "enum": ["data", "text"],
                        "type": "string",
                        "default": "data",
                        "description": "Stream framing",
                        "name": "protocol",
                        "in": "query"
                    },
                    {
                        "description": "Conversation and optional system hint",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Chat_Request"}
                    }
                ],
                "responses": {
                    "200": {"description": "Streamed completion", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Provider failure", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/chat/ws": {
            "get": {
                "description": "WebSocket chat. Each text frame is a chat request; replies are one frame per stream part followed by {\"type\":\"done\"}.",
                "summary": "Chat over WebSocket",
                "parameters": [
                    {"enum": ["data", "text"], "type": "string", "default": "data", "name": "protocol", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthResponse"}}
                }
            }
        },
        "/api/presentation_meta": {
            "post": {
                "description": "Extracts the text of an uploaded PDF and synthesizes deck metadata.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Deck metadata from a PDF",
                "parameters": [
                    {
                        "description": "PDF data URL and optional filename",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Presentation_Meta_Request"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DeckMetadata"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.Attachment": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "contentType": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "models.ToolInvocation": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["call", "partial-call", "result"]},
                "toolCallId": {"type": "string"},
                "toolName": {"type": "string"},
                "args": {},
                "result": {}
            }
        },
        "models.ClientMessage": {
            "type": "object",
            "properties": {
                "role": {"type": "string"},
                "content": {"type": "string"},
                "experimental_attachments": {"type": "array", "items": {"$ref": "#/definitions/models.Attachment"}},
                "attachments": {"type": "array", "items": {"$ref": "#/definitions/models.Attachment"}},
                "toolInvocations": {"type": "array", "items": {"$ref": "#/definitions/models.ToolInvocation"}}
            }
        },
        "models.SystemHint": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "rawPreview": {"type": "string"},
                "systemPrompt": {"type": "string"}
            }
        },
        "models.Chat_Request": {
            "type": "object",
            "properties": {
                "messages": {"type": "array", "items": {"$ref": "#/definitions/models.ClientMessage"}},
                "system": {"$ref": "#/definitions/models.SystemHint"}
            }
        },
        "models.Presentation_Meta_Request": {
            "type": "object",
            "required": ["pdf_data_url"],
            "properties": {
                "pdf_data_url": {"type": "string"},
                "filename": {"type": "string"}
            }
        },
        "models.SuggestedAction": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "label": {"type": "string"},
                "action": {"type": "string"}
            }
        },
        "models.DeckMetadata": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "suggestedActions": {"type": "array", "items": {"$ref": "#/definitions/models.SuggestedAction"}},
                "systemPrompt": {"type": "string", "x-nullable": true},
                "topics": {"type": "array", "items": {"type": "string"}},
                "rawPreview": {"type": "string"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "provider": {"type": "string"},
                "model": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "deckchat API",
	Description:      "LLM chat gateway that adapts to uploaded presentations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
