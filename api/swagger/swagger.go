package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Assessment API",
        "description": "Score entry, grading and class result compilation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Assessments", "description": "Score entry and completion tracking"},
        {"name": "Results", "description": "Class rankings, report cards and exports"},
        {"name": "Grading", "description": "Grade resolution and grading systems"},
        {"name": "Teacher Assignments", "description": "Teacher subject and class grants"}
    ],
    "paths": {
        "/assessments": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Save assessments in batches",
                "description": "Records are committed in batches. When a batch fails, earlier batches stay saved and the partial result is returned with the error.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveAssessmentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload or score out of bounds", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Teacher lacks the subject or class grant", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Partially saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/sheet": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Assessment sheet of one subject in a class term",
                "parameters": [
                    {"name": "classTermId", "in": "query", "type": "string", "required": true},
                    {"name": "subjectId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/assessments/overview": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Completion overview of a class term",
                "parameters": [
                    {"name": "classTermId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/assessments/publish": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Publish a subject's assessments once every student is done",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PublishAssessmentsRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/assessments/teacher": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Resolve the teacher responsible for a subject in a class term",
                "parameters": [
                    {"name": "classTermId", "in": "query", "type": "string", "required": true},
                    {"name": "subjectId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/results/class/{classTermId}": {
            "get": {
                "tags": ["Results"],
                "summary": "Ranked class results",
                "parameters": [
                    {"name": "classTermId", "in": "path", "type": "string", "required": true},
                    {"name": "subjectIds", "in": "query", "type": "string", "description": "Comma separated subject IDs; all offered subjects when omitted"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/results/class/{classTermId}/students/{studentId}": {
            "get": {
                "tags": ["Results"],
                "summary": "Report card of one student",
                "parameters": [
                    {"name": "classTermId", "in": "path", "type": "string", "required": true},
                    {"name": "studentId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not in class", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/results/class/{classTermId}/export": {
            "get": {
                "tags": ["Results"],
                "summary": "Download the class result sheet",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "classTermId", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"], "default": "pdf"},
                    {"name": "subjectIds", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/grading/resolve": {
            "get": {
                "tags": ["Grading"],
                "summary": "Resolve the grade of a total score",
                "parameters": [
                    {"name": "score", "in": "query", "type": "number", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/grading/systems": {
            "get": {
                "tags": ["Grading"],
                "summary": "List grading systems of the school",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Grading"],
                "summary": "Create a grading system",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateGradingSystemRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/grading/systems/{id}/levels": {
            "put": {
                "tags": ["Grading"],
                "summary": "Replace the bands of a grading system",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceGradeLevelsRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/grading/systems/{id}/default": {
            "post": {
                "tags": ["Grading"],
                "summary": "Make a grading system the school default",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/grading/systems/{id}": {
            "delete": {
                "tags": ["Grading"],
                "summary": "Delete a grading system",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/teachers/{id}/assignments": {
            "get": {
                "tags": ["Teacher Assignments"],
                "summary": "List subject and class grants of a teacher",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teachers/{id}/subjects": {
            "post": {
                "tags": ["Teacher Assignments"],
                "summary": "Grant a subject for a term",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/subjects/{grantId}": {
            "delete": {
                "tags": ["Teacher Assignments"],
                "summary": "Revoke a subject grant",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "grantId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/teachers/{id}/class-terms": {
            "post": {
                "tags": ["Teacher Assignments"],
                "summary": "Grant a class term",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignClassTermRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/class-terms/{grantId}": {
            "delete": {
                "tags": ["Teacher Assignments"],
                "summary": "Revoke a class term grant",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "grantId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "Deleted"}}
            }
        }
    },
    "definitions": {
        "AssessmentRecord": {
            "type": "object",
            "required": ["studentId", "classEnrollmentId"],
            "properties": {
                "studentId": {"type": "string"},
                "classEnrollmentId": {"type": "string"},
                "ca1": {"type": "number", "minimum": 0, "maximum": 10},
                "ca2": {"type": "number", "minimum": 0, "maximum": 10},
                "ca3": {"type": "number", "minimum": 0, "maximum": 10},
                "exam": {"type": "number", "minimum": 0, "maximum": 70},
                "isAbsent": {"type": "boolean"},
                "isExempt": {"type": "boolean"}
            }
        },
        "SaveAssessmentsRequest": {
            "type": "object",
            "required": ["termId", "subjectId", "classTermId", "records"],
            "properties": {
                "termId": {"type": "string"},
                "subjectId": {"type": "string"},
                "classTermId": {"type": "string"},
                "records": {"type": "array", "items": {"$ref": "#/definitions/AssessmentRecord"}}
            }
        },
        "PublishAssessmentsRequest": {
            "type": "object",
            "required": ["classTermId", "subjectId"],
            "properties": {
                "classTermId": {"type": "string"},
                "subjectId": {"type": "string"}
            }
        },
        "GradeLevelRequest": {
            "type": "object",
            "required": ["grade"],
            "properties": {
                "minScore": {"type": "number"},
                "maxScore": {"type": "number"},
                "grade": {"type": "string"},
                "remark": {"type": "string"}
            }
        },
        "CreateGradingSystemRequest": {
            "type": "object",
            "required": ["name", "levels"],
            "properties": {
                "name": {"type": "string"},
                "isDefault": {"type": "boolean"},
                "levels": {"type": "array", "items": {"$ref": "#/definitions/GradeLevelRequest"}}
            }
        },
        "ReplaceGradeLevelsRequest": {
            "type": "object",
            "required": ["levels"],
            "properties": {
                "levels": {"type": "array", "items": {"$ref": "#/definitions/GradeLevelRequest"}}
            }
        },
        "AssignSubjectRequest": {
            "type": "object",
            "required": ["subjectId", "termId"],
            "properties": {
                "subjectId": {"type": "string"},
                "termId": {"type": "string"}
            }
        },
        "AssignClassTermRequest": {
            "type": "object",
            "required": ["classTermId"],
            "properties": {
                "classTermId": {"type": "string"}
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
                "success": {"type": "boolean"},
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
