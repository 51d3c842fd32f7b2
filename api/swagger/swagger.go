package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Careloop Scheduling API",
        "description": "Clinic appointment scheduling optimization service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduling", "description": "Schedule optimization"},
        {"name": "Capacity", "description": "Provider capacity planning"},
        {"name": "Risk", "description": "No-show risk assessments"}
    ],
    "paths": {
        "/schedule/optimize": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Run a schedule optimization pass",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OptimizeScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/capacity/plan": {
            "get": {
                "tags": ["Capacity"],
                "summary": "Compute a provider capacity plan",
                "parameters": [
                    {"name": "providerId", "in": "query", "required": true, "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "targetUtilization", "in": "query", "type": "number"},
                    {"name": "riskTolerance", "in": "query", "type": "string", "enum": ["low", "medium", "high"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/capacity/plan/export": {
            "get": {
                "tags": ["Capacity"],
                "summary": "Export a provider capacity plan",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "providerId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "archive", "in": "query", "type": "boolean", "description": "Persist the document and return a download token instead"}
                ],
                "responses": {
                    "200": {"description": "Rendered document"}
                }
            }
        },
        "/capacity/exports/{token}": {
            "get": {
                "tags": ["Capacity"],
                "summary": "Download a previously archived capacity plan export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Rendered document"},
                    "404": {"description": "Expired or missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/risk/appointments/{id}": {
            "get": {
                "tags": ["Risk"],
                "summary": "Read the cached risk assessment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not cached", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Risk"],
                "summary": "Invalidate the cached risk assessment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/risk/batch": {
            "post": {
                "tags": ["Risk"],
                "summary": "Compute risk assessments for a batch of appointments",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchRiskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "OptimizeScheduleRequest": {
            "type": "object",
            "properties": {
                "providerId": {"type": "string"},
                "dateRange": {
                    "type": "object",
                    "properties": {
                        "startDate": {"type": "string"},
                        "endDate": {"type": "string"}
                    }
                },
                "appointmentRequests": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AppointmentRequest"}
                },
                "constraints": {"type": "object"},
                "preferences": {"type": "object"}
            },
            "required": ["providerId", "appointmentRequests"]
        },
        "AppointmentRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "patientId": {"type": "string"},
                "appointmentType": {"type": "string", "enum": ["routine", "follow_up", "consultation", "procedure"]},
                "durationMinutes": {"type": "integer"},
                "priority": {"type": "string", "enum": ["urgent", "high", "medium", "low"]},
                "preferredTimes": {"type": "array", "items": {"type": "object"}},
                "noShowRisk": {"type": "number"}
            },
            "required": ["patientId", "appointmentType", "durationMinutes"]
        },
        "BatchRiskRequest": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "appointmentId": {"type": "string"},
                            "features": {"type": "object"}
                        },
                        "required": ["appointmentId"]
                    }
                }
            },
            "required": ["items"]
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
