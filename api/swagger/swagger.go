package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Bus Pass Portal",
        "description": "Rider and administrator portal over the campus bus pass service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Session", "description": "Sign in and out"},
        {"name": "Pass", "description": "Pass standing, applications and countdown"},
        {"name": "Payment", "description": "Order creation and payment verification"},
        {"name": "SOS", "description": "Emergency alerts raised by riders"},
        {"name": "Admin SOS", "description": "Alert monitoring and resolution"},
        {"name": "Admin Applications", "description": "Application review"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Session"],
                "summary": "Sign in",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session opened", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Session"],
                "summary": "Sign out",
                "responses": {
                    "204": {"description": "Session discarded"}
                }
            }
        },
        "/me": {
            "get": {
                "tags": ["Session"],
                "summary": "Current principal",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pass/standing": {
            "get": {
                "tags": ["Pass"],
                "summary": "Current pass standing",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend unavailable or standing undetermined", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pass/applications": {
            "post": {
                "tags": ["Pass"],
                "summary": "Apply for a pass",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SubmitApplicationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Standing does not allow a new application", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pass/countdown": {
            "get": {
                "tags": ["Pass"],
                "summary": "Pass countdown",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No pass issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pass/countdown/stream": {
            "get": {
                "tags": ["Pass"],
                "summary": "Live pass countdown",
                "produces": ["text/event-stream"],
                "responses": {
                    "200": {"description": "countdown events"}
                }
            }
        },
        "/pass/payment/order": {
            "post": {
                "tags": ["Payment"],
                "summary": "Create payment order",
                "parameters": [
                    {"in": "body", "name": "payload", "required": false, "schema": {"$ref": "#/definitions/CreateOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Order created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Nothing to pay", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Could not initiate payment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pass/payment/verify": {
            "post": {
                "tags": ["Payment"],
                "summary": "Verify payment",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/VerifyPaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Verified", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Verification failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sos/alerts": {
            "post": {
                "tags": ["SOS"],
                "summary": "Raise an SOS alert",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SendAlertRequest"}}
                ],
                "responses": {
                    "201": {"description": "Alert sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Location unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Failed to send", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/sos/alerts": {
            "get": {
                "tags": ["Admin SOS"],
                "summary": "List SOS alerts",
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer", "default": 1},
                    {"in": "query", "name": "refresh", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/sos/alerts/stream": {
            "get": {
                "tags": ["Admin SOS"],
                "summary": "Live SOS alert feed",
                "produces": ["text/event-stream"],
                "responses": {
                    "200": {"description": "alert snapshots"}
                }
            }
        },
        "/admin/sos/active-count": {
            "get": {
                "tags": ["Admin SOS"],
                "summary": "Active alert count",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/sos/alerts/{id}/resolve": {
            "post": {
                "tags": ["Admin SOS"],
                "summary": "Resolve an SOS alert",
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "Resolved, first page of the refetched list", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Failed to resolve alert", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/applications": {
            "get": {
                "tags": ["Admin Applications"],
                "summary": "List pass applications",
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/applications/{id}/status": {
            "put": {
                "tags": ["Admin Applications"],
                "summary": "Approve or reject an application",
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateApplicationStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "DocumentRef": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["PHOTO", "ID_PROOF", "STUDENT_ID"]},
                "reference": {"type": "string"}
            },
            "required": ["kind", "reference"]
        },
        "SubmitApplicationRequest": {
            "type": "object",
            "properties": {
                "passType": {"type": "string", "enum": ["MONTHLY", "QUARTERLY", "YEARLY"]},
                "source": {"type": "string"},
                "destination": {"type": "string"},
                "documents": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/DocumentRef"}
                }
            },
            "required": ["passType", "documents"]
        },
        "CreateOrderRequest": {
            "type": "object",
            "properties": {
                "applicationId": {"type": "integer"}
            }
        },
        "VerifyPaymentRequest": {
            "type": "object",
            "properties": {
                "applicationId": {"type": "integer"},
                "razorpay_order_id": {"type": "string"},
                "razorpay_payment_id": {"type": "string"},
                "razorpay_signature": {"type": "string"}
            },
            "required": ["applicationId", "razorpay_order_id", "razorpay_payment_id", "razorpay_signature"]
        },
        "SendAlertRequest": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "accuracy": {"type": "number"},
                "locationError": {"type": "string", "enum": ["PERMISSION_DENIED", "UNAVAILABLE", "TIMEOUT", "UNKNOWN"]},
                "message": {"type": "string"}
            }
        },
        "UpdateApplicationStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["APPROVED", "REJECTED"]}
            },
            "required": ["status"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
