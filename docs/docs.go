// Package docs swagger 文档（swag init -g cmd/server/main.go 生成）
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/v1/feed": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Feed"],
                "summary": "加载 feed 首页",
                "parameters": [
                    {"type": "string", "default": "following", "description": "following | promoted", "name": "audience", "in": "query"},
                    {"type": "integer", "default": 20, "description": "每页数量", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/feed/more": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Feed"],
                "summary": "加载 feed 下一页（仅返回新增条目）",
                "parameters": [
                    {"type": "string", "default": "following", "description": "following | promoted", "name": "audience", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/votes": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["投票"],
                "summary": "赞/踩切换（同向再次提交即取消）",
                "parameters": [
                    {"description": "投票", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.voteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/relations/follow": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["关系链"],
                "summary": "关注用户",
                "parameters": [
                    {"description": "关注信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.followRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/relations/unfollow": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["关系链"],
                "summary": "取消关注",
                "parameters": [
                    {"description": "取消关注信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.followRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/relations/{user_id}/following": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["关系链"],
                "summary": "查询关注列表",
                "parameters": [
                    {"type": "string", "description": "用户ID", "name": "user_id", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "每页数量", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/relations/{user_id}/followers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["关系链"],
                "summary": "查询粉丝列表",
                "parameters": [
                    {"type": "string", "description": "用户ID", "name": "user_id", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "每页数量", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/blocks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["屏蔽"],
                "summary": "屏蔽列表",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["屏蔽"],
                "summary": "屏蔽用户",
                "parameters": [
                    {"description": "被屏蔽用户", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.blockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/blocks/{user_id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["屏蔽"],
                "summary": "取消屏蔽",
                "parameters": [
                    {"type": "string", "description": "用户ID", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/people": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["用户"],
                "summary": "搜索用户",
                "parameters": [
                    {"type": "string", "description": "前缀", "name": "q", "in": "query", "required": true},
                    {"type": "integer", "default": 20, "description": "每页数量", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/people/more": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["用户"],
                "summary": "搜索用户下一页",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "handler.blockRequest": {
            "type": "object",
            "required": ["user_id"],
            "properties": {"user_id": {"type": "string"}}
        },
        "handler.followRequest": {
            "type": "object",
            "required": ["to_user_id"],
            "properties": {"to_user_id": {"type": "string"}}
        },
        "handler.voteRequest": {
            "type": "object",
            "required": ["item_id", "type"],
            "properties": {
                "item_id": {"type": "string"},
                "type": {"type": "string", "enum": ["up", "down"]}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
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
	Title:            "TravelFeed API",
	Description:      "关注/推荐 feed、投票、屏蔽与关注通知",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
