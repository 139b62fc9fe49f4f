// Package mcp implements a Model Context Protocol (MCP) server over the
// storefront catalog and order history.
//
// The server is read-only. It exposes four tools to MCP clients:
//   - search_products: Filter and page the catalog, as GET /products does
//   - get_product: Fetch one product with live stock
//   - get_order: Fetch an order, enforcing that it belongs to user_id
//   - store_status: Row counts, reservation mode and catalog cache state
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started by the storefront-mcp binary against the same
// database file the HTTP server uses:
//
//	STOREFRONT_DB_PATH=/var/lib/storefront/storefront.db storefront-mcp
//
// # Tool: search_products
//
//	Request:
//	{
//	  "name": "search_products",
//	  "arguments": {
//	    "category": "Electronics",
//	    "max_price": 50,
//	    "per_page": 5
//	  }
//	}
//
//	Response:
//	{
//	  "cache_hit": false,
//	  "current_page": 1,
//	  "last_page": 2,
//	  "per_page": 5,
//	  "products": [
//	    {"id": 7, "name": "USB Cable", "price": "9.99", "stock": 40, "in_stock": true, ...}
//	  ],
//	  "total": 8
//	}
//
// Listings go through the catalog cache, so stock may be up to one cache TTL
// old. get_product always reads the database.
//
// # Error Handling
//
// Tool errors are returned as *MCPError and encoded by the framework:
//   - -32602: Invalid params (missing or malformed arguments)
//   - -32603: Internal error (database failure)
//   - -32001: Product or order not found
//   - -32002: Order belongs to another user
//
// # Logging
//
// stdout is reserved for the protocol. The binary logs to stderr.
package mcp
