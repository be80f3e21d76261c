package shopclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 8 * time.Second
	csrfHeader     = "X-CSRF-Token"
)

// ErrNoCSRFToken is returned by Bootstrap when the page carries no csrf meta tag.
var ErrNoCSRFToken = errors.New("shopclient: csrf token not found")

// Client talks to the shop HTTP surface the way the mini-app page does:
// a cookie-bound session and a CSRF token echoed on every mutation.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	mu   sync.RWMutex
	csrf string
	lang string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. A cookie jar is added when missing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithCSRFToken(token string) Option {
	return func(c *Client) {
		c.csrf = token
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// CartLine mirrors one entry of GET /shop/api/cart.
type CartLine struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Stock       int    `json:"stock"`
	Unavailable bool   `json:"unavailable"`
}

type CartSnapshot struct {
	Lines      []CartLine `json:"lines"`
	TotalCount int        `json:"total_count"`
}

type envelope struct {
	Success    *bool  `json:"success"`
	Message    string `json:"message"`
	TotalCount *int   `json:"total_count"`
	Added      bool   `json:"added"`
}

// OrderRequest is the checkout form of POST /shop/order/create.
type OrderRequest struct {
	LineIDs        []int64
	DeliveryMethod string
	Phone          string
	Address        string
	Comment        string
}

type orderResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
}

// Bootstrap loads the shop index to obtain a session cookie, the CSRF token
// and the session language.
func (c *Client) Bootstrap(ctx context.Context) error {
	return c.loadIndex(ctx, "/shop/", "bootstrap")
}

func (c *Client) loadIndex(ctx context.Context, path, op string) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return serverError(resp.StatusCode, "")
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("shopclient: parse index: %w", err)
	}
	token, ok := doc.Find(`meta[name="csrf-token"]`).Attr("content")
	if !ok || strings.TrimSpace(token) == "" {
		return ErrNoCSRFToken
	}
	lang, _ := doc.Find("html").Attr("lang")
	c.mu.Lock()
	c.csrf = token
	c.lang = lang
	c.mu.Unlock()
	return nil
}

// Language is the interface language reported by the last loaded page.
func (c *Client) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// SetLanguage switches the session language and reloads the index.
func (c *Client) SetLanguage(ctx context.Context, lang string) error {
	return c.loadIndex(ctx, "/shop/set_lang?"+url.Values{"lang": []string{lang}}.Encode(), "set language")
}

func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrf
}

// AddToCart adds one unit and returns the cart's total unit count.
func (c *Client) AddToCart(ctx context.Context, productID int64) (int, error) {
	env, err := c.post(ctx, fmt.Sprintf("/shop/api/cart/add/%d", productID), nil, "add to cart")
	if err != nil {
		return 0, err
	}
	if env.TotalCount == nil {
		return 0, nil
	}
	return *env.TotalCount, nil
}

// UpdateQuantity sets the absolute quantity of a cart line.
func (c *Client) UpdateQuantity(ctx context.Context, lineID int64, qty int) error {
	q := url.Values{"qty": []string{strconv.Itoa(qty)}}
	_, err := c.post(ctx, fmt.Sprintf("/shop/api/cart/update/%d", lineID), q, "update quantity")
	return err
}

// DeleteLine removes a cart line and returns the remaining unit count when reported.
func (c *Client) DeleteLine(ctx context.Context, lineID int64) (int, error) {
	env, err := c.post(ctx, fmt.Sprintf("/shop/api/cart/delete/%d", lineID), nil, "delete line")
	if err != nil {
		return 0, err
	}
	if env.TotalCount == nil {
		return 0, nil
	}
	return *env.TotalCount, nil
}

// ToggleFavorite reports whether the product is a favorite afterwards.
func (c *Client) ToggleFavorite(ctx context.Context, productID int64) (bool, error) {
	env, err := c.post(ctx, fmt.Sprintf("/shop/api/favorite/%d", productID), nil, "toggle favorite")
	if err != nil {
		return false, err
	}
	return env.Added, nil
}

// Search returns the product list fragment for q.
func (c *Client) Search(ctx context.Context, q string) (string, error) {
	return c.fragment(ctx, "/shop/api/search?"+url.Values{"q": []string{q}}.Encode(), "search")
}

// ProductsByCategory returns the product list fragment; "all" lists every active product.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID string) (string, error) {
	return c.fragment(ctx, "/shop/api/products?"+url.Values{"category_id": []string{categoryID}}.Encode(), "products")
}

// Product returns the product card fragment.
func (c *Client) Product(ctx context.Context, productID int64) (string, error) {
	return c.fragment(ctx, fmt.Sprintf("/shop/api/product/%d", productID), "product")
}

// PlaceOrder submits the checkout form and returns the new order id.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (int64, error) {
	form := url.Values{}
	for _, id := range req.LineIDs {
		form.Add("item_ids", strconv.FormatInt(id, 10))
	}
	form.Set("delivery_method", req.DeliveryMethod)
	form.Set("phone", req.Phone)
	form.Set("address", req.Address)
	form.Set("comment", req.Comment)

	headers := c.mutationHeaders()
	headers.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.do(ctx, http.MethodPost, "/shop/order/create", headers, strings.NewReader(form.Encode()), "place order")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var out orderResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode >= 400 || out.Status == "error" {
		return 0, serverError(resp.StatusCode, out.Message)
	}
	if decodeErr != nil {
		return 0, fmt.Errorf("shopclient: decode place order: %w", decodeErr)
	}
	return out.OrderID, nil
}

func (c *Client) Cart(ctx context.Context) (CartSnapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, "/shop/api/cart", nil, nil, "cart")
	if err != nil {
		return CartSnapshot{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return CartSnapshot{}, serverError(resp.StatusCode, messageFrom(resp.Body))
	}
	var snap CartSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return CartSnapshot{}, fmt.Errorf("shopclient: decode cart: %w", err)
	}
	return snap, nil
}

func (c *Client) fragment(ctx context.Context, path, op string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil, op)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode >= 400 {
		return "", serverError(resp.StatusCode, "")
	}
	return string(body), nil
}

func (c *Client) post(ctx context.Context, path string, query url.Values, op string) (envelope, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	resp, err := c.do(ctx, http.MethodPost, path, c.mutationHeaders(), nil, op)
	if err != nil {
		return envelope{}, err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode >= 400 {
		return envelope{}, serverError(resp.StatusCode, env.Message)
	}
	if decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return envelope{}, fmt.Errorf("shopclient: decode %s: %w", op, decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return envelope{}, serverError(resp.StatusCode, env.Message)
	}
	return env, nil
}

func (c *Client) mutationHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	if token := c.CSRFToken(); token != "" {
		headers.Set(csrfHeader, token)
	}
	return headers
}

func (c *Client) do(ctx context.Context, method, path string, headers http.Header, body io.Reader, op string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("shop request failed", zap.String("op", op), zap.Error(err))
		return nil, &NetworkError{Op: op, Err: err}
	}
	c.logger.Debug("shop request",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

func messageFrom(r io.Reader) string {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return ""
	}
	return env.Message
}
