package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Wardrobe Matching API",
        "description": "Color-harmony outfit matching over a personal wardrobe",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Authentication", "description": "Accounts, tokens and sessions"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Wardrobe", "description": "Items, matching and quotas"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current account profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}/verified": {
            "put": {
                "tags": ["Users"],
                "summary": "Toggle the verified-client flag",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetVerifiedRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "User not found"}
                }
            }
        },
        "/wardrobe/items": {
            "get": {
                "tags": ["Wardrobe"],
                "summary": "List wardrobe items",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string", "enum": ["tops", "bottoms", "shoes", "accessories"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Wardrobe"],
                "summary": "Upload a wardrobe item",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "image", "in": "formData", "required": true, "type": "file"},
                    {"name": "category", "in": "formData", "required": true, "type": "string", "enum": ["tops", "bottoms", "shoes", "accessories"]},
                    {"name": "colors", "in": "formData", "type": "string"},
                    {"name": "styles", "in": "formData", "type": "string"},
                    {"name": "seasons", "in": "formData", "type": "string"},
                    {"name": "pattern", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Category item limit reached"},
                    "413": {"description": "File too large"},
                    "415": {"description": "Unsupported file type"}
                }
            }
        },
        "/wardrobe/items/{id}": {
            "delete": {
                "tags": ["Wardrobe"],
                "summary": "Delete a wardrobe item",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Item not found"}
                }
            }
        },
        "/wardrobe/match": {
            "get": {
                "tags": ["Wardrobe"],
                "summary": "Get an outfit match",
                "parameters": [
                    {"name": "exclude", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wardrobe/limits/{category}": {
            "get": {
                "tags": ["Wardrobe"],
                "summary": "Per-category quota status",
                "parameters": [
                    {"name": "category", "in": "path", "required": true, "type": "string", "enum": ["tops", "bottoms", "shoes", "accessories"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/QuotaStatus"}},
                    "400": {"description": "Unknown category"}
                }
            }
        },
        "/wardrobe/export": {
            "get": {
                "tags": ["Wardrobe"],
                "summary": "Export the wardrobe",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "403": {"description": "Verified account required"}
                }
            }
        },
        "/images/{token}": {
            "get": {
                "tags": ["Wardrobe"],
                "summary": "Fetch a garment image by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Image bytes"},
                    "404": {"description": "Unknown, expired or tampered token"}
                }
            }
        }
    },
    "definitions": {
        "ClothingItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "category": {"type": "string"},
                "color_tags": {"type": "array", "items": {"type": "string"}},
                "style_tags": {"type": "array", "items": {"type": "string"}},
                "season_tags": {"type": "array", "items": {"type": "string"}},
                "pattern": {"type": "string"},
                "image_url": {"type": "string"},
                "created_at": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "MatchResponse": {
            "type": "object",
            "properties": {
                "matched": {"type": "boolean"},
                "reason": {"type": "string", "enum": ["need_more_items", "no_more_items"]},
                "message": {"type": "string"},
                "current_item": {"$ref": "#/definitions/ClothingItem"},
                "matched_item": {"$ref": "#/definitions/ClothingItem"},
                "score": {"type": "integer"},
                "occasion": {"type": "string"}
            }
        },
        "QuotaStatus": {
            "type": "object",
            "properties": {
                "allowed": {"type": "boolean"},
                "used": {"type": "integer"},
                "limit": {"type": "string", "description": "Numeric cap, or the string 'unlimited' for verified clients"},
                "category": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "full_name", "password"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "SetVerifiedRequest": {
            "type": "object",
            "properties": {
                "verified": {"type": "boolean"}
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
