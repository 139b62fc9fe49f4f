package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"github.com/dshills/storefront/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound      = -32001 // Product or order does not exist
	ErrorCodeForbidden     = -32002 // Order belongs to another user
)

// handleSearchProducts handles the search_products tool invocation
func (s *Server) handleSearchProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		// Every search_products argument is optional
		args = map[string]interface{}{}
	}

	filter := types.ProductFilter{
		Name:     strings.TrimSpace(getStringDefault(args, "name", "")),
		Category: strings.TrimSpace(getStringDefault(args, "category", "")),
	}
	for _, key := range []string{"min_price", "max_price"} {
		bound, present, err := getDecimal(args, key)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, key+" must be a number", map[string]interface{}{
				"param": key,
				"value": args[key],
			})
		}
		if !present {
			continue
		}
		if key == "min_price" {
			filter.MinPrice = &bound
		} else {
			filter.MaxPrice = &bound
		}
	}

	req := types.PageRequest{
		Page:    getIntDefault(args, "page", 1),
		PerPage: getIntDefault(args, "per_page", types.DefaultPerPage),
	}.Normalize()

	listing, err := s.catalog.List(ctx, filter, req)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	products := make([]map[string]interface{}, 0, len(listing.Page.Items))
	for _, p := range listing.Page.Items {
		products = append(products, productSummary(p))
	}

	response := map[string]interface{}{
		"products":     products,
		"current_page": listing.Page.CurrentPage,
		"last_page":    listing.Page.LastPage,
		"per_page":     listing.Page.PerPage,
		"total":        listing.Page.Total,
		"cache_hit":    listing.CacheHit,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetProduct handles the get_product tool invocation
func (s *Server) handleGetProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := requireID(args, "id")
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.Get(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "product not found", map[string]interface{}{
			"id": id,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get product", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(productSummary(product))), nil
}

// handleGetOrder handles the get_order tool invocation
func (s *Server) handleGetOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	userID, err := requireID(args, "user_id")
	if err != nil {
		return nil, err
	}
	orderID, err := requireID(args, "order_id")
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetForUser(ctx, userID, orderID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		return nil, newMCPError(ErrorCodeNotFound, "order not found", map[string]interface{}{
			"order_id": orderID,
		})
	case errors.Is(err, types.ErrForbidden):
		return nil, newMCPError(ErrorCodeForbidden, "order belongs to another user", map[string]interface{}{
			"order_id": orderID,
			"user_id":  userID,
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "failed to get order", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		line := map[string]interface{}{
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
			"price":      formatMoney(item.Price),
			"line_total": formatMoney(item.LineTotal()),
		}
		// Deleted products leave the line with no product
		if item.Product != nil {
			line["product_name"] = item.Product.Name
		}
		items = append(items, line)
	}

	response := map[string]interface{}{
		"id":         order.ID,
		"user_id":    order.UserID,
		"status":     string(order.Status),
		"total":      formatMoney(order.Total),
		"created_at": order.CreatedAt.Format(time.RFC3339),
		"items":      items,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleStoreStatus handles the store_status tool invocation
func (s *Server) handleStoreStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"statistics": map[string]interface{}{
			"products_count": stats.Products,
			"orders_count":   stats.Orders,
			"users_count":    stats.Users,
		},
		"orders": map[string]interface{}{
			"reservation_mode": string(s.orders.Mode()),
		},
		"catalog_cache": map[string]interface{}{
			"enabled":     s.catalog.TTL() > 0,
			"ttl_seconds": int(s.catalog.TTL().Seconds()),
			"entries":     s.catalog.CacheLen(),
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func productSummary(p *types.Product) map[string]interface{} {
	summary := map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       formatMoney(p.Price),
		"category":    p.Category,
		"stock":       p.Stock,
		"in_stock":    p.Stock > 0,
	}
	if p.Image != nil {
		summary["image"] = *p.Image
	}
	return summary
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(types.MoneyScale)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// requireID extracts a positive whole-number id
func requireID(args map[string]interface{}, key string) (int64, error) {
	var id int64
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, invalidID(key, v)
		}
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	case nil:
		return 0, newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing",
		})
	default:
		return 0, invalidID(key, v)
	}
	if id < 1 {
		return 0, invalidID(key, args[key])
	}
	return id, nil
}

func invalidID(key string, value interface{}) error {
	return newMCPError(ErrorCodeInvalidParams, key+" must be a positive integer", map[string]interface{}{
		"param": key,
		"value": value,
	})
}

// getDecimal extracts an optional number given as a JSON number or numeric string
func getDecimal(args map[string]interface{}, key string) (decimal.Decimal, bool, error) {
	switch v := args[key].(type) {
	case nil:
		return decimal.Decimal{}, false, nil
	case float64:
		return decimal.NewFromFloat(v), true, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return decimal.Decimal{}, false, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, false, err
		}
		return d, true, nil
	default:
		return decimal.Decimal{}, false, fmt.Errorf("unsupported type %T", v)
	}
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
