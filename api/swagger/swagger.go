package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Notenpfad API",
        "description": "Grade tracking with weighted averages, trends and a study assistant.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Role secret exchange"},
        {"name": "Grades", "description": "Grade recording and averages"},
        {"name": "Subjects", "description": "Subject catalog and topics"},
        {"name": "Students", "description": "Student management and reports"},
        {"name": "Assistant", "description": "Study assistant chat"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Dependency unavailable"}}
            }
        },
        "/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a role secret for an access token",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid role or secret", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current identity",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "List grades with per-student averages",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "studentId", "type": "string"},
                    {"in": "query", "name": "subjectId", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Other student"}}
            },
            "post": {
                "tags": ["Grades"],
                "summary": "Record a grade",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateGradeRequest"}}],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Malformed payload"},
                    "422": {"description": "Value outside the grade scale or unknown reference"}
                }
            }
        },
        "/grades/{id}": {
            "get": {
                "tags": ["Grades"],
                "summary": "Get a grade",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Grades"],
                "summary": "Delete a grade",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/averages": {
            "get": {
                "tags": ["Grades"],
                "summary": "Weighted averages and trend of a student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "studentId", "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "No grades recorded"}}
            }
        },
        "/prediction": {
            "post": {
                "tags": ["Grades"],
                "summary": "Grade required in a subject to reach a target overall average",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "No grades recorded"}}
            }
        },
        "/subjects": {
            "get": {"tags": ["Subjects"], "summary": "List subjects", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Subjects"], "summary": "Create a subject", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Name taken"}}}
        },
        "/subjects/{id}": {
            "get": {"tags": ["Subjects"], "summary": "Get a subject", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Subjects"], "summary": "Update a subject", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Subjects"], "summary": "Delete a subject", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Deleted"}, "409": {"description": "Subject has grades"}}}
        },
        "/subjects/{id}/topics": {
            "get": {"tags": ["Subjects"], "summary": "List topics of a subject", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/topics": {
            "post": {"tags": ["Subjects"], "summary": "Create a topic", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/topics/{id}/toggle": {
            "put": {"tags": ["Subjects"], "summary": "Toggle topic completion", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/students": {
            "get": {"tags": ["Students"], "summary": "List students", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Students"], "summary": "Create a student", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/students/{id}": {
            "get": {"tags": ["Students"], "summary": "Get a student", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Students"], "summary": "Rename a student", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Students"], "summary": "Delete a student", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Deleted"}, "409": {"description": "Student has grades"}}}
        },
        "/students/{id}/reset": {
            "post": {"tags": ["Students"], "summary": "Delete all grades and reset topics", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/students/{id}/report": {
            "get": {
                "tags": ["Students"],
                "summary": "Download a report card",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "File"}, "404": {"description": "No grades recorded"}}
            }
        },
        "/chat": {
            "post": {
                "tags": ["Assistant"],
                "summary": "Ask the study assistant",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ChatRequest"}}],
                "responses": {"200": {"description": "Reply or fallback"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["admin", "student"]},
                "secret": {"type": "string"},
                "student_id": {"type": "string"}
            }
        },
        "CreateGradeRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "value": {"type": "number"},
                "type": {"type": "string"},
                "date": {"type": "string", "format": "date"}
            }
        },
        "ChatRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "student_id": {"type": "string"}
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
