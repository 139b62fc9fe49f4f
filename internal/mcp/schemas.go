package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/storefront/pkg/types"
)

// searchProductsTool returns the tool definition for search_products
func searchProductsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_products",
		Description: "Search the product catalog by name, category and price range",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Case-insensitive substring of the product name",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Exact category",
				},
				"min_price": map[string]interface{}{
					"type":        "number",
					"description": "Inclusive lower price bound",
					"minimum":     0,
				},
				"max_price": map[string]interface{}{
					"type":        "number",
					"description": "Inclusive upper price bound",
					"minimum":     0,
				},
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number, starting at 1",
					"default":     1,
					"minimum":     1,
				},
				"per_page": map[string]interface{}{
					"type":        "integer",
					"description": "Products per page",
					"default":     types.DefaultPerPage,
					"minimum":     1,
					"maximum":     types.MaxPerPage,
				},
			},
		},
	}
}

// getProductTool returns the tool definition for get_product
func getProductTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_product",
		Description: "Fetch one product with its current stock",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "Product id",
					"minimum":     1,
				},
			},
			Required: []string{"id"},
		},
	}
}

// getOrderTool returns the tool definition for get_order
func getOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_order",
		Description: "Fetch an order with its line items, as seen by its owner",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "integer",
					"description": "Id of the user the order must belong to",
					"minimum":     1,
				},
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Order id",
					"minimum":     1,
				},
			},
			Required: []string{"user_id", "order_id"},
		},
	}
}

// storeStatusTool returns the tool definition for store_status
func storeStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "store_status",
		Description: "Report row counts, reservation mode and catalog cache state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
