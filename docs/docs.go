// Package docs registers the OpenAPI description served at /swagger/doc.json.
// Route details mirror the godoc annotations on the HTTP handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/search": {
            "post": {
                "tags": ["Search"],
                "summary": "Search articles",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/searchRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SearchResult"}},
                    "400": {"description": "Invalid request or query", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "503": {"description": "Every source failed", "schema": {"$ref": "#/definitions/domain.SearchResult"}}
                }
            }
        },
        "/search/personalized": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Search"],
                "summary": "Personalized search",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/searchRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SearchResult"}},
                    "400": {"description": "Invalid request or query", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/search/suggestions": {
            "get": {
                "tags": ["Search"],
                "summary": "Search suggestions",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "in": "query", "name": "q", "required": true},
                    {"type": "integer", "default": 10, "in": "query", "name": "limit"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.SearchSuggestion"}}},
                    "400": {"description": "Invalid limit", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/recommendations": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Recommendations"],
                "summary": "Get recommendations",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.RecommendationRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.RecommendationResult"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Admin access required", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/recommendations/trending": {
            "get": {
                "tags": ["Recommendations"],
                "summary": "Trending articles",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "default": 10, "in": "query", "name": "limit"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.TrendingArticle"}}},
                    "503": {"description": "Content store unavailable", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/engagements": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Recommendations"],
                "summary": "Record engagement notice",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.EngagementEvent"}}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/StatusResponse"}},
                    "403": {"description": "Admin access required", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {"type": "object", "properties": {"error": {"type": "string", "example": "invalid request body"}}},
        "StatusResponse": {"type": "object", "properties": {"status": {"type": "string", "example": "ok"}}},
        "searchRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string", "example": "bitcoin naira"},
                "personalize": {"type": "boolean"},
                "type": {"type": "string", "enum": ["articles", "market_data", "mixed"]},
                "language": {"type": "string"},
                "region": {"type": "string"},
                "include_semantic_ranking": {"type": "boolean"},
                "optimize_for_region": {"type": "boolean"},
                "boost_regional_terms": {"type": "boolean"},
                "diversity_level": {"type": "string", "enum": ["low", "medium", "high"]},
                "max_response_time_ms": {"type": "integer"},
                "optimize_for_mobile": {"type": "boolean"},
                "limit_bandwidth": {"type": "boolean"},
                "track_analytics": {"type": "boolean"},
                "limit": {"type": "integer"}
            }
        },
        "domain.SearchResult": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "total": {"type": "integer"},
                "hits": {"type": "array", "items": {"type": "object"}},
                "search_method": {"type": "string", "enum": ["hybrid", "lexical", "lexical_fallback", "semantic_fallback", "failed"]},
                "performance": {"type": "object"},
                "cached": {"type": "boolean"},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string"}
            }
        },
        "domain.SearchSuggestion": {
            "type": "object",
            "properties": {"text": {"type": "string"}, "score": {"type": "number"}, "regional": {"type": "boolean"}}
        },
        "domain.RecommendationRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "limit": {"type": "integer"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "exclude_read": {"type": "boolean"},
                "time_range": {"type": "string", "enum": ["24h", "7d", "30d"]},
                "diversity_level": {"type": "string", "enum": ["low", "medium", "high"]},
                "max_response_time_ms": {"type": "integer"}
            }
        },
        "domain.RecommendationResult": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "items": {"type": "array", "items": {"type": "object"}},
                "diversity_score": {"type": "number"},
                "personalization_score": {"type": "number"},
                "personalized": {"type": "boolean"},
                "cached": {"type": "boolean"},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "took": {"type": "integer"}
            }
        },
        "domain.TrendingArticle": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "title": {"type": "string"}, "score": {"type": "number"}, "reason": {"type": "string"}}
        },
        "domain.EngagementEvent": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "article_id": {"type": "string"},
                "action_type": {"type": "string", "enum": ["view", "like", "share", "comment", "bookmark", "subscribe", "download"]},
                "recorded_at": {"type": "string", "format": "date-time"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and the JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Newsrank API",
	Description:      "Multi-signal ranking of crypto news for African markets: search, recommendations and trending.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
