package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Coursework Sync API",
        "description": "Copies Canvas assignments into a Notion database.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Sync", "description": "Sync runs and their audit trail"},
        {"name": "Settings", "description": "Per-user credentials and calendar inputs"},
        {"name": "Calendar", "description": "Semester and week bucketing"}
    ],
    "paths": {
        "/sync": {
            "post": {
                "tags": ["Sync"],
                "summary": "Run a sync now",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Settings incomplete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/async": {
            "post": {
                "tags": ["Sync"],
                "summary": "Queue a sync",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SyncRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A sync is already queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Async sync disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/latest": {
            "get": {
                "tags": ["Sync"],
                "summary": "Latest sync result",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No sync yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/history": {
            "get": {
                "tags": ["Sync"],
                "summary": "Sync history",
                "parameters": [
                    {"name": "action", "in": "query", "type": "string", "enum": ["sync", "create_db"]},
                    {"name": "status", "in": "query", "type": "string", "enum": ["success", "error"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/history/export": {
            "get": {
                "tags": ["Sync"],
                "summary": "Export sync history",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Document", "schema": {"type": "file"}}
                }
            }
        },
        "/databases": {
            "post": {
                "tags": ["Sync"],
                "summary": "Create the Notion database",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CreateDatabaseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Notion rejected the request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get sync settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update sync settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/resolve": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Resolve semester and week",
                "security": [],
                "parameters": [
                    {"name": "due", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid due date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SyncRequest": {
            "type": "object",
            "properties": {
                "timeframe": {"type": "string", "enum": ["past", "overdue", "undated", "ungraded", "unsubmitted", "upcoming", "future"]},
                "course_scope": {"type": "string", "enum": ["recent", "all"]}
            }
        },
        "CreateDatabaseRequest": {
            "type": "object",
            "properties": {
                "properties": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Phase": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "start": {"type": "string", "format": "date"},
                "end": {"type": "string", "format": "date"}
            }
        },
        "UpdateSettingsRequest": {
            "type": "object",
            "required": ["school_domain", "notion_page_id"],
            "properties": {
                "canvas_token": {"type": "string"},
                "notion_token": {"type": "string"},
                "school_domain": {"type": "string"},
                "notion_page_id": {"type": "string"},
                "notion_database_id": {"type": "string"},
                "db_properties": {"type": "array", "items": {"type": "string"}},
                "semester_start_date": {"type": "string", "format": "date"},
                "semester_end_date": {"type": "string", "format": "date"},
                "semester_label": {"type": "string"},
                "semester_phases": {"type": "array", "items": {"$ref": "#/definitions/Phase"}},
                "auto_sync": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
