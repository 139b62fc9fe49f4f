package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dshills/storefront/internal/catalog"
	"github.com/dshills/storefront/internal/orders"
	"github.com/dshills/storefront/pkg/types"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

var msgBodyTooLarge = fmt.Sprintf("The request body must not be greater than %d kilobytes.", maxBodyBytes>>10)

// decodeBody reads a JSON object into a generic map. Numbers are kept as
// json.Number so integer and decimal rules can be checked exactly. An empty
// body decodes to an empty map. A body over maxBodyBytes fails with
// *http.MaxBytesError instead of being cut short.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		verr := types.NewValidationError()
		verr.Add("body", "The request body must be a JSON object.")
		return nil, verr
	}
	return body, nil
}

// asInt accepts JSON integers and integer strings
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// asDecimal accepts JSON numbers and numeric strings
func asDecimal(v any) (decimal.Decimal, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = strings.TrimSpace(n)
	default:
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	return d, err == nil
}

func isMissing(v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}

// stringField reads a string field. A missing required field and a value of
// the wrong type are both recorded on verr.
func stringField(body map[string]any, field string, required bool, verr *types.ValidationError) (string, bool) {
	v, present := body[field]
	if isMissing(v, present) {
		if required {
			verr.Add(field, fmt.Sprintf("The %s field is required.", field))
		}
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		verr.Add(field, fmt.Sprintf("The %s field must be a string.", field))
		return "", false
	}
	return s, true
}

// parseItems validates the items array of an order request
func parseItems(body map[string]any) ([]orders.ItemRequest, error) {
	verr := types.NewValidationError()

	raw, present := body["items"]
	if !present || raw == nil {
		verr.Add("items", "The items field is required.")
		return nil, verr
	}
	list, ok := raw.([]any)
	if !ok {
		verr.Add("items", "The items field must be an array.")
		return nil, verr
	}
	if len(list) == 0 {
		verr.Add("items", "The items field is required.")
		return nil, verr
	}

	items := make([]orders.ItemRequest, 0, len(list))
	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			verr.Add(fmt.Sprintf("items.%d", i), fmt.Sprintf("The items.%d field must be an object.", i))
			continue
		}

		var item orders.ItemRequest
		pidField := fmt.Sprintf("items.%d.product_id", i)
		if v, present := obj["product_id"]; isMissing(v, present) {
			verr.Add(pidField, fmt.Sprintf("The %s field is required.", pidField))
		} else if id, ok := asInt(v); !ok || id < 1 {
			verr.Add(pidField, fmt.Sprintf("The selected %s is invalid.", pidField))
		} else {
			item.ProductID = id
		}

		qtyField := fmt.Sprintf("items.%d.quantity", i)
		if v, present := obj["quantity"]; isMissing(v, present) {
			verr.Add(qtyField, fmt.Sprintf("The %s field is required.", qtyField))
		} else if qty, ok := asInt(v); !ok {
			verr.Add(qtyField, fmt.Sprintf("The %s field must be an integer.", qtyField))
		} else if qty < 1 {
			verr.Add(qtyField, fmt.Sprintf("The %s field must be at least 1.", qtyField))
		} else {
			item.Quantity = int(qty)
		}
		items = append(items, item)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return items, nil
}

// parseProduct reads a full product for creation. Range rules are left to
// Product.Validate.
func parseProduct(body map[string]any) (*types.Product, error) {
	verr := types.NewValidationError()
	p := &types.Product{}

	p.Name, _ = stringField(body, "name", true, verr)
	p.Description, _ = stringField(body, "description", true, verr)
	p.Category, _ = stringField(body, "category", true, verr)

	if v, present := body["price"]; isMissing(v, present) {
		verr.Add("price", "The price field is required.")
	} else if d, ok := asDecimal(v); !ok {
		verr.Add("price", "The price field must be a number.")
	} else {
		p.Price = d
	}

	if v, present := body["stock"]; isMissing(v, present) {
		verr.Add("stock", "The stock field is required.")
	} else if n, ok := asInt(v); !ok {
		verr.Add("stock", "The stock field must be an integer.")
	} else {
		p.Stock = int(n)
	}

	if image, ok := stringField(body, "image", false, verr); ok {
		p.Image = &image
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return p, nil
}

// parseProductPatch reads the fields present in an update request
func parseProductPatch(body map[string]any) (catalog.ProductPatch, error) {
	verr := types.NewValidationError()
	var patch catalog.ProductPatch

	for _, field := range []string{"name", "description", "category"} {
		if _, present := body[field]; !present {
			continue
		}
		s, ok := stringField(body, field, true, verr)
		if !ok {
			continue
		}
		value := s
		switch field {
		case "name":
			patch.Name = &value
		case "description":
			patch.Description = &value
		case "category":
			patch.Category = &value
		}
	}

	if v, present := body["price"]; present {
		if d, ok := asDecimal(v); ok {
			patch.Price = &d
		} else {
			verr.Add("price", "The price field must be a number.")
		}
	}
	if v, present := body["stock"]; present {
		if n, ok := asInt(v); ok {
			stock := int(n)
			patch.Stock = &stock
		} else {
			verr.Add("stock", "The stock field must be an integer.")
		}
	}
	if v, present := body["image"]; present {
		patch.ImageSet = true
		if v != nil {
			if s, ok := v.(string); ok {
				patch.Image = &s
			} else {
				verr.Add("image", "The image field must be a string.")
			}
		}
	}

	if err := verr.OrNil(); err != nil {
		return catalog.ProductPatch{}, err
	}
	return patch, nil
}

// parseFilter reads catalog filters from the query string
func parseFilter(r *http.Request) (types.ProductFilter, error) {
	q := r.URL.Query()
	verr := types.NewValidationError()
	filter := types.ProductFilter{
		Name:     strings.TrimSpace(q.Get("name")),
		Category: strings.TrimSpace(q.Get("category")),
	}

	for _, field := range []string{"min_price", "max_price"} {
		raw := strings.TrimSpace(q.Get(field))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			verr.Add(field, fmt.Sprintf("The %s field must be a number.", field))
			continue
		}
		if field == "min_price" {
			filter.MinPrice = &d
		} else {
			filter.MaxPrice = &d
		}
	}
	return filter, verr.OrNil()
}

// parsePage reads page and per_page. Unparseable values fall back to defaults.
func parsePage(r *http.Request) types.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return types.PageRequest{Page: page, PerPage: perPage}.Normalize()
}

// pathID parses the {id} wildcard
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
