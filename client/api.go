package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/services"
)

// API is the durable request client. It wraps the service's JSON
// envelope and maps HTTP failures to errors the caller can branch on.
type API struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewAPI(baseURL string) *API {
	return &API{BaseURL: baseURL, HTTP: http.DefaultClient}
}

// APIError is a non-2xx response: 400 for validation problems, 409 for
// illegal state transitions, 404 for unknown ids.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *API) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	res, err := a.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &APIError{Status: res.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

type createOrderRequest struct {
	StudentID string                `json:"studentId"`
	VendorID  string                `json:"vendorId"`
	Items     []services.CreateItem `json:"items"`
}

func (a *API) CreateOrder(studentID, vendorID string, items []services.CreateItem) (models.Order, error) {
	var order models.Order
	err := a.do(http.MethodPost, "/orders", createOrderRequest{StudentID: studentID, VendorID: vendorID, Items: items}, &order)
	return order, err
}

func (a *API) MarkPaid(orderID string) (models.Order, error) {
	var order models.Order
	err := a.do(http.MethodPost, "/orders/"+orderID+"/pay", nil, &order)
	return order, err
}

func (a *API) AcceptOrder(orderID string) (models.Order, error) {
	var order models.Order
	err := a.do(http.MethodPost, "/orders/"+orderID+"/accept", nil, &order)
	return order, err
}

func (a *API) RejectOrder(orderID string) (models.Order, error) {
	var order models.Order
	err := a.do(http.MethodPost, "/orders/"+orderID+"/reject", nil, &order)
	return order, err
}

func (a *API) ListOrdersByStudent(studentID string) ([]models.Order, error) {
	var orders []models.Order
	err := a.do(http.MethodGet, "/orders?studentId="+url.QueryEscape(studentID), nil, &orders)
	return orders, err
}

func (a *API) ListOrdersByVendor(vendorID string) ([]models.Order, error) {
	var orders []models.Order
	err := a.do(http.MethodGet, "/orders?vendorId="+url.QueryEscape(vendorID), nil, &orders)
	return orders, err
}

type messagePage struct {
	Messages   []models.ChatMessage `json:"messages"`
	NextCursor *string              `json:"nextCursor"`
}

// FetchMessages pages backwards through an order's chat log. An empty
// before fetches the latest page.
func (a *API) FetchMessages(orderID, before string, limit int) ([]models.ChatMessage, *string, error) {
	q := url.Values{}
	if before != "" {
		q.Set("before", before)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/orders/" + orderID + "/messages"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var page messagePage
	if err := a.do(http.MethodGet, path, nil, &page); err != nil {
		return nil, nil, err
	}
	return page.Messages, page.NextCursor, nil
}

type sendMessageRequest struct {
	From string `json:"from"`
	Text string `json:"text"`
}

func (a *API) SendMessage(orderID, from, text string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := a.do(http.MethodPost, "/orders/"+orderID+"/messages", sendMessageRequest{From: from, Text: text}, &msg)
	return msg, err
}

type clearResult struct {
	Deleted int64 `json:"deleted"`
}

func (a *API) ClearMessages(orderID string) (int64, error) {
	var res clearResult
	err := a.do(http.MethodDelete, "/orders/"+orderID+"/messages", nil, &res)
	return res.Deleted, err
}
