// Package docs holds the OpenAPI document for the tribehub API. Regenerate it with
// swag init -g cmd/server/main.go -o docs after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "API Support"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/accounts/{address}/balance": {
			"get": {
				"description": "Get wallet balance.",
				"produces": [
					"application/json"
				],
				"tags": [
					"wallet"
				],
				"summary": "Get wallet balance",
				"parameters": [
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"account": {
									"type": "string"
								},
								"balance": {
									"type": "integer"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/accounts/{address}/collectibles": {
			"get": {
				"description": "List account holdings.",
				"produces": [
					"application/json"
				],
				"tags": [
					"collectibles"
				],
				"summary": "List account holdings",
				"parameters": [
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_CollectibleHolding"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/accounts/{address}/posts": {
			"get": {
				"description": "List account posts.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "List account posts",
				"parameters": [
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_Post"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/accounts/{address}/roles": {
			"get": {
				"description": "List account roles.",
				"produces": [
					"application/json"
				],
				"tags": [
					"roles"
				],
				"summary": "List account roles",
				"parameters": [
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"account": {
									"type": "string"
								},
								"roles": {
									"type": "array",
									"items": {
										"type": "string"
									}
								},
								"fan_assigner": {
									"type": "boolean"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/accounts/{address}/tribes": {
			"get": {
				"description": "List account tribes.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "List account tribes",
				"parameters": [
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_Tribe"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/assigners": {
			"post": {
				"description": "Allow an account to grant and revoke FAN. Super-admin only.",
				"produces": [
					"application/json"
				],
				"tags": [
					"roles"
				],
				"summary": "Authorize FAN assigner",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.accountRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/assigners/{address}": {
			"delete": {
				"description": "Revoke FAN assigner.",
				"produces": [
					"application/json"
				],
				"tags": [
					"roles"
				],
				"summary": "Revoke FAN assigner",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/collectibles/{id}": {
			"get": {
				"description": "Get collectible.",
				"produces": [
					"application/json"
				],
				"tags": [
					"collectibles"
				],
				"summary": "Get collectible",
				"parameters": [
					{
						"type": "integer",
						"description": "Collectible ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Collectible"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/collectibles/{id}/holders/{address}": {
			"get": {
				"description": "Get collectible holding.",
				"produces": [
					"application/json"
				],
				"tags": [
					"collectibles"
				],
				"summary": "Get collectible holding",
				"parameters": [
					{
						"type": "integer",
						"description": "Collectible ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"collectible_id": {
									"type": "integer"
								},
								"account": {
									"type": "string"
								},
								"balance": {
									"type": "integer"
								},
								"whitelisted": {
									"type": "boolean"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/dispenser/deposit": {
			"post": {
				"description": "Move value from the caller's wallet into their dispenser balance.",
				"produces": [
					"application/json"
				],
				"tags": [
					"dispenser"
				],
				"summary": "Deposit into dispenser",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.amountRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"402": {
						"description": "Payment Required",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/dispenser/signers": {
			"post": {
				"description": "Add dispenser signer.",
				"produces": [
					"application/json"
				],
				"tags": [
					"dispenser"
				],
				"summary": "Add dispenser signer",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.signerRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/dispenser/signers/{address}": {
			"delete": {
				"description": "Remove dispenser signer.",
				"produces": [
					"application/json"
				],
				"tags": [
					"dispenser"
				],
				"summary": "Remove dispenser signer",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/dispenser/spend": {
			"post": {
				"description": "Pay a recipient from an organization balance under a signer signature.",
				"produces": [
					"application/json"
				],
				"tags": [
					"dispenser"
				],
				"summary": "Spend from dispenser",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.spendRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"402": {
						"description": "Payment Required",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/dispenser/withdraw": {
			"post": {
				"description": "Withdraw from dispenser.",
				"produces": [
					"application/json"
				],
				"tags": [
					"dispenser"
				],
				"summary": "Withdraw from dispenser",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.amountRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"402": {
						"description": "Payment Required",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/dispensers/{address}": {
			"get": {
				"description": "Get dispenser.",
				"produces": [
					"application/json"
				],
				"tags": [
					"dispenser"
				],
				"summary": "Get dispenser",
				"parameters": [
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"organization": {
									"type": "string"
								},
								"balance": {
									"type": "integer"
								},
								"signers": {
									"type": "array",
									"items": {
										"type": "string"
									}
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/events": {
			"get": {
				"description": "Committed events in commit order, optionally filtered.",
				"produces": [
					"application/json"
				],
				"tags": [
					"events"
				],
				"summary": "List journal events",
				"parameters": [
					{
						"type": "string",
						"description": "Entity kind",
						"name": "entity",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Entity id",
						"name": "entity_id",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Caller address",
						"name": "actor",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Only events after this sequence",
						"name": "after",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_Event"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/ledger/head": {
			"get": {
				"description": "Last committed operation sequence number.",
				"produces": [
					"application/json"
				],
				"tags": [
					"events"
				],
				"summary": "Get ledger head",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"sequence": {
									"type": "integer"
								}
							}
						}
					}
				}
			}
		},
		"/me/feed": {
			"get": {
				"description": "Posts from the caller's tribes and followed tribes, newest first.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Get feed",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_Post"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}": {
			"patch": {
				"description": "Update post metadata.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Update post metadata",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.metadataRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"description": "Gated metadata is redacted unless the bearer may see it.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Get post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Post"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}/comments": {
			"get": {
				"description": "List comments.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "List comments",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_Comment"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"description": "Comment on post.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Comment on post",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.metadataRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Comment"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}/like": {
			"post": {
				"description": "Like a post. Liking twice is a no-op.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Like post",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}/save": {
			"post": {
				"description": "Save post.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Save post",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}/share": {
			"post": {
				"description": "Share post.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Share post",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/redemption/redeem": {
			"post": {
				"description": "Redeem points with a verifier signature. Each signature is accepted once.",
				"produces": [
					"application/json"
				],
				"tags": [
					"redemption"
				],
				"summary": "Redeem points",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.redeemRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"402": {
						"description": "Payment Required",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/redemption/signatures/{signature}": {
			"get": {
				"description": "Check signature use.",
				"produces": [
					"application/json"
				],
				"tags": [
					"redemption"
				],
				"summary": "Check signature use",
				"parameters": [
					{
						"type": "string",
						"description": "Hex signature",
						"name": "signature",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"used": {
									"type": "boolean"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/redemption/verifier": {
			"put": {
				"description": "Set the global signer that authorizes point redemptions. Super-admin only.",
				"produces": [
					"application/json"
				],
				"tags": [
					"redemption"
				],
				"summary": "Set redemption verifier",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.verifierRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"description": "Get redemption verifier.",
				"produces": [
					"application/json"
				],
				"tags": [
					"redemption"
				],
				"summary": "Get redemption verifier",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"verifier": {
									"type": "string"
								}
							}
						}
					}
				}
			}
		},
		"/roles/{role}/admin": {
			"put": {
				"description": "Let holders of admin_role grant and revoke the role. Super-admin only.",
				"produces": [
					"application/json"
				],
				"tags": [
					"roles"
				],
				"summary": "Delegate role administration",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Role",
						"name": "role",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.roleAdminRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/roles/{role}/grant": {
			"post": {
				"description": "Grant a role to an account. Granting a held role is a no-op.",
				"produces": [
					"application/json"
				],
				"tags": [
					"roles"
				],
				"summary": "Grant role",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Role",
						"name": "role",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.accountRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/roles/{role}/members": {
			"get": {
				"description": "List role members.",
				"produces": [
					"application/json"
				],
				"tags": [
					"roles"
				],
				"summary": "List role members",
				"parameters": [
					{
						"type": "string",
						"description": "Role",
						"name": "role",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_RoleAssignment"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/roles/{role}/revoke": {
			"post": {
				"description": "Revoke a role from an account. Revoking a role not held is a no-op.",
				"produces": [
					"application/json"
				],
				"tags": [
					"roles"
				],
				"summary": "Revoke role",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Role",
						"name": "role",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.accountRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes": {
			"get": {
				"description": "List tribes.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "List tribes",
				"parameters": [
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_Tribe"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"description": "Create tribe.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Create tribe",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.CreateTribeRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Tribe"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/by-name/{name}": {
			"get": {
				"description": "Names match after normalization.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Find tribe by name",
				"parameters": [
					{
						"type": "string",
						"description": "Tribe name",
						"name": "name",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Tribe"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}": {
			"get": {
				"description": "Get tribe details.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Get tribe details",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.TribeDetails"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"patch": {
				"description": "Update metadata and the whitelist. Tribe admins only.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Update tribe",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.UpdateTribeRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"description": "Deactivate tribe.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Deactivate tribe",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/actions": {
			"post": {
				"description": "Register action.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Register action",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.actionRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/collectibles": {
			"post": {
				"description": "Create a tribe collectible. Tribe admins only.",
				"produces": [
					"application/json"
				],
				"tags": [
					"collectibles"
				],
				"summary": "Create collectible",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.CreateCollectibleRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Collectible"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"description": "List tribe collectibles.",
				"produces": [
					"application/json"
				],
				"tags": [
					"collectibles"
				],
				"summary": "List tribe collectibles",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_Collectible"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/collectibles/{collectibleId}/claim": {
			"post": {
				"description": "Claim one unit, paying the price and meeting the points requirement.",
				"produces": [
					"application/json"
				],
				"tags": [
					"collectibles"
				],
				"summary": "Claim collectible",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Collectible ID",
						"name": "collectibleId",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": false,
						"schema": {
							"$ref": "#/definitions/server.paymentRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"402": {
						"description": "Payment Required",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/collectibles/{collectibleId}/whitelist": {
			"put": {
				"description": "Update collectible whitelist.",
				"produces": [
					"application/json"
				],
				"tags": [
					"collectibles"
				],
				"summary": "Update collectible whitelist",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Collectible ID",
						"name": "collectibleId",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.collectibleWhitelistRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/config": {
			"put": {
				"description": "Update tribe join config.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Update tribe join config",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.TribeConfigRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/follow": {
			"post": {
				"description": "Follow tribe.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Follow tribe",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"description": "Unfollow tribe.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Unfollow tribe",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/invites": {
			"post": {
				"description": "Create invite code.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Create invite code",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.inviteRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.TribeInvite"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/issuers": {
			"post": {
				"description": "Grant point issuer.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Grant point issuer",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.accountRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/issuers/{address}": {
			"delete": {
				"description": "Revoke point issuer.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Revoke point issuer",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/join": {
			"post": {
				"description": "Join under the tribe policy. Unspent payment is refunded.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Join tribe",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": false,
						"schema": {
							"$ref": "#/definitions/server.joinRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"status": {
									"type": "string"
								},
								"receipt": {
									"$ref": "#/definitions/server.ReceiptResponse"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/leave": {
			"post": {
				"description": "Leave tribe.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Leave tribe",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/members": {
			"get": {
				"description": "List members.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "List members",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Filter by membership status",
						"name": "status",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_Membership"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/members/{address}": {
			"get": {
				"description": "Get member status.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Get member status",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"tribe_id": {
									"type": "integer"
								},
								"account": {
									"type": "string"
								},
								"status": {
									"type": "string"
								},
								"admin": {
									"type": "boolean"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/members/{address}/approve": {
			"post": {
				"description": "Approve pending member.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Approve pending member",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/members/{address}/ban": {
			"post": {
				"description": "Ban member.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Ban member",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/members/{address}/reject": {
			"post": {
				"description": "Reject pending member.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Reject pending member",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/members/{address}/unban": {
			"post": {
				"description": "Unban member.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Unban member",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/point-types": {
			"post": {
				"description": "Register point type.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Register point type",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.pointTypeRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.PointType"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"description": "List point types.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "List point types",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_PointType"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/points/award": {
			"post": {
				"description": "Award points for a registered action. Tribe admins and issuers only.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Award points",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.awardRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/points/spend": {
			"post": {
				"description": "Spend points.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Spend points",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.spendPointsRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"402": {
						"description": "Payment Required",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/points/{address}": {
			"get": {
				"description": "Get point balances.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Get point balances",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"tribe_id": {
									"type": "integer"
								},
								"account": {
									"type": "string"
								},
								"balances": {
									"type": "array",
									"items": {
										"$ref": "#/definitions/models.PointBalance"
									}
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/posts": {
			"post": {
				"description": "Publish a post to a tribe. Gated posts carry an access rule.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Create post",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.CreatePostRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Post"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"429": {
						"description": "Too Many Requests",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"description": "List tribe posts.",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "List tribe posts",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Items to skip",
						"name": "offset",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Page-models_Post"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/token": {
			"post": {
				"description": "Create tribe token.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Create tribe token",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.tokenRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.TribeToken"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"description": "Get tribe token.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Get tribe token",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.TribeToken"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/token/buy": {
			"post": {
				"description": "Buy tribe tokens with native value at the exchange rate.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Buy tribe tokens",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.paymentRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"402": {
						"description": "Payment Required",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/token/rate": {
			"put": {
				"description": "Set token exchange rate.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Set token exchange rate",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.rateRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/token/{address}": {
			"get": {
				"description": "Get tribe token balance.",
				"produces": [
					"application/json"
				],
				"tags": [
					"economy"
				],
				"summary": "Get tribe token balance",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"tribe_id": {
									"type": "integer"
								},
								"account": {
									"type": "string"
								},
								"balance": {
									"type": "integer"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/tribes/{id}/whitelist/{address}": {
			"get": {
				"description": "Check whitelist.",
				"produces": [
					"application/json"
				],
				"tags": [
					"tribes"
				],
				"summary": "Check whitelist",
				"parameters": [
					{
						"type": "integer",
						"description": "Tribe ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Account address",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"tribe_id": {
									"type": "integer"
								},
								"account": {
									"type": "string"
								},
								"whitelisted": {
									"type": "boolean"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/wallet/mint": {
			"post": {
				"description": "Credit new native value to an account. Super-admin only.",
				"produces": [
					"application/json"
				],
				"tags": [
					"wallet"
				],
				"summary": "Mint value",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.amountRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/wallet/transfer": {
			"post": {
				"description": "Send value from the caller's wallet.",
				"produces": [
					"application/json"
				],
				"tags": [
					"wallet"
				],
				"summary": "Transfer value",
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.amountRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.ReceiptResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"402": {
						"description": "Payment Required",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"models.Collectible": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"tribe_id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"symbol": {
					"type": "string"
				},
				"metadata": {
					"type": "string"
				},
				"max_supply": {
					"type": "integer"
				},
				"total_claimed": {
					"type": "integer"
				},
				"price": {
					"type": "integer"
				},
				"points_required": {
					"type": "integer"
				},
				"point_type_id": {
					"type": "integer"
				},
				"whitelist_enabled": {
					"type": "boolean"
				},
				"active": {
					"type": "boolean"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.CollectibleHolding": {
			"type": "object",
			"properties": {
				"collectible_id": {
					"type": "integer"
				},
				"account": {
					"type": "string"
				},
				"balance": {
					"type": "integer"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.Comment": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"post_id": {
					"type": "integer"
				},
				"author": {
					"type": "string"
				},
				"metadata": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"code": {
					"type": "string"
				},
				"details": {
					"type": "string"
				}
			}
		},
		"models.Event": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"op_seq": {
					"type": "integer"
				},
				"op": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"entity": {
					"type": "string"
				},
				"entity_id": {
					"type": "string"
				},
				"actor": {
					"type": "string"
				},
				"payload": {
					"type": "object"
				},
				"committed_at": {
					"type": "string"
				}
			}
		},
		"models.Membership": {
			"type": "object",
			"properties": {
				"tribe_id": {
					"type": "integer"
				},
				"account": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"joined_at": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.PointBalance": {
			"type": "object",
			"properties": {
				"tribe_id": {
					"type": "integer"
				},
				"account": {
					"type": "string"
				},
				"point_type_id": {
					"type": "integer"
				},
				"balance": {
					"type": "integer"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.PointType": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"tribe_id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.Post": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"tribe_id": {
					"type": "integer"
				},
				"creator": {
					"type": "string"
				},
				"metadata": {
					"type": "string"
				},
				"gated": {
					"type": "boolean"
				},
				"access_kind": {
					"type": "string"
				},
				"access_ref": {
					"type": "string"
				},
				"access_min": {
					"type": "integer"
				},
				"like_count": {
					"type": "integer"
				},
				"comment_count": {
					"type": "integer"
				},
				"share_count": {
					"type": "integer"
				},
				"save_count": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				},
				"edited_at": {
					"type": "string"
				},
				"redacted": {
					"type": "boolean"
				}
			}
		},
		"models.RoleAssignment": {
			"type": "object",
			"properties": {
				"role": {
					"type": "string"
				},
				"account": {
					"type": "string"
				},
				"granted_by": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.Tribe": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"metadata": {
					"type": "string"
				},
				"admin": {
					"type": "string"
				},
				"join_policy": {
					"type": "string"
				},
				"entry_fee": {
					"type": "integer"
				},
				"active": {
					"type": "boolean"
				},
				"member_count": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.TribeInvite": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"tribe_id": {
					"type": "integer"
				},
				"max_uses": {
					"type": "integer"
				},
				"uses": {
					"type": "integer"
				},
				"expires_at": {
					"type": "string"
				},
				"created_by": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.TribeRequirement": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"tribe_id": {
					"type": "integer"
				},
				"contract": {
					"type": "string"
				},
				"token_id": {
					"type": "integer"
				},
				"min_amount": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.TribeToken": {
			"type": "object",
			"properties": {
				"tribe_id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"symbol": {
					"type": "string"
				},
				"exchange_rate": {
					"type": "integer"
				},
				"total_supply": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"server.CreateCollectibleRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"symbol": {
					"type": "string"
				},
				"metadata": {
					"type": "string"
				},
				"max_supply": {
					"type": "integer"
				},
				"price": {
					"type": "integer"
				},
				"points_required": {
					"type": "integer"
				},
				"point_type_id": {
					"type": "integer"
				}
			}
		},
		"server.CreatePostRequest": {
			"type": "object",
			"properties": {
				"metadata": {
					"type": "string"
				},
				"access": {
					"$ref": "#/definitions/service.AccessRule"
				}
			}
		},
		"server.CreateTribeRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"metadata": {
					"type": "string"
				},
				"initial_admins": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"join_policy": {
					"type": "string"
				},
				"entry_fee": {
					"type": "integer"
				},
				"requirements": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/service.RequirementInput"
					}
				}
			}
		},
		"server.ReceiptResponse": {
			"type": "object",
			"properties": {
				"seq": {
					"type": "integer"
				},
				"noop": {
					"type": "boolean"
				},
				"refund": {
					"type": "integer"
				},
				"events": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Event"
					}
				}
			}
		},
		"server.TribeConfigRequest": {
			"type": "object",
			"properties": {
				"join_policy": {
					"type": "string"
				},
				"entry_fee": {
					"type": "integer"
				},
				"requirements": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/service.RequirementInput"
					}
				}
			}
		},
		"server.UpdateTribeRequest": {
			"type": "object",
			"properties": {
				"metadata": {
					"type": "string"
				},
				"whitelist_add": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"whitelist_remove": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"server.accountRequest": {
			"type": "object",
			"properties": {
				"account": {
					"type": "string"
				}
			}
		},
		"server.actionRequest": {
			"type": "object",
			"properties": {
				"action_id": {
					"type": "string"
				},
				"point_type_id": {
					"type": "integer"
				}
			}
		},
		"server.amountRequest": {
			"type": "object",
			"properties": {
				"account": {
					"type": "string"
				},
				"amount": {
					"type": "integer"
				}
			}
		},
		"server.awardRequest": {
			"type": "object",
			"properties": {
				"account": {
					"type": "string"
				},
				"amount": {
					"type": "integer"
				},
				"action_id": {
					"type": "string"
				}
			}
		},
		"server.collectibleWhitelistRequest": {
			"type": "object",
			"properties": {
				"enabled": {
					"type": "boolean"
				},
				"add": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"remove": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"server.inviteRequest": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"max_uses": {
					"type": "integer"
				},
				"expires_at": {
					"type": "string"
				}
			}
		},
		"server.joinRequest": {
			"type": "object",
			"properties": {
				"payment": {
					"type": "integer"
				},
				"invite_code": {
					"type": "string"
				}
			}
		},
		"server.metadataRequest": {
			"type": "object",
			"properties": {
				"metadata": {
					"type": "string"
				}
			}
		},
		"server.paymentRequest": {
			"type": "object",
			"properties": {
				"payment": {
					"type": "integer"
				}
			}
		},
		"server.pointTypeRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				}
			}
		},
		"server.rateRequest": {
			"type": "object",
			"properties": {
				"rate": {
					"type": "integer"
				}
			}
		},
		"server.redeemRequest": {
			"type": "object",
			"properties": {
				"points": {
					"type": "integer"
				},
				"collectible_id": {
					"type": "integer"
				},
				"signature": {
					"type": "string"
				}
			}
		},
		"server.roleAdminRequest": {
			"type": "object",
			"properties": {
				"admin_role": {
					"type": "string"
				}
			}
		},
		"server.signerRequest": {
			"type": "object",
			"properties": {
				"signer": {
					"type": "string"
				}
			}
		},
		"server.spendPointsRequest": {
			"type": "object",
			"properties": {
				"account": {
					"type": "string"
				},
				"point_type_id": {
					"type": "integer"
				},
				"amount": {
					"type": "integer"
				},
				"reason": {
					"type": "string"
				}
			}
		},
		"server.spendRequest": {
			"type": "object",
			"properties": {
				"organization": {
					"type": "string"
				},
				"recipient": {
					"type": "string"
				},
				"amount": {
					"type": "integer"
				},
				"reason": {
					"type": "string"
				},
				"signature": {
					"type": "string"
				}
			}
		},
		"server.tokenRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"symbol": {
					"type": "string"
				}
			}
		},
		"server.verifierRequest": {
			"type": "object",
			"properties": {
				"verifier": {
					"type": "string"
				}
			}
		},
		"service.AccessRule": {
			"type": "object",
			"properties": {
				"kind": {
					"type": "string"
				},
				"ref": {
					"type": "string"
				},
				"min": {
					"type": "integer"
				}
			}
		},
		"service.Page-models_Collectible": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Collectible"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"service.Page-models_CollectibleHolding": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.CollectibleHolding"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"service.Page-models_Comment": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Comment"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"service.Page-models_Event": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Event"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"service.Page-models_Membership": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Membership"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"service.Page-models_PointType": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.PointType"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"service.Page-models_Post": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Post"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"service.Page-models_RoleAssignment": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.RoleAssignment"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"service.Page-models_Tribe": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Tribe"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"service.RequirementInput": {
			"type": "object",
			"properties": {
				"contract": {
					"type": "string"
				},
				"token_id": {
					"type": "integer"
				},
				"min_amount": {
					"type": "integer"
				}
			}
		},
		"service.TribeDetails": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"metadata": {
					"type": "string"
				},
				"admin": {
					"type": "string"
				},
				"join_policy": {
					"type": "string"
				},
				"entry_fee": {
					"type": "integer"
				},
				"active": {
					"type": "boolean"
				},
				"member_count": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				},
				"co_admins": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"requirements": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.TribeRequirement"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and JWT token.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8375",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Tribehub API",
	Description:      "Tribe ledger API: roles, tribes, posts, points, tokens, collectibles and signed redemptions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
