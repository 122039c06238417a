// Package apiclient is a thin Go client for the HTTP API. Scripted
// deployments use it instead of hand-rolled curl calls.
package apiclient

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL *url.URL
	hc      *http.Client
	token   string
}

type Options struct {
	Addr     string
	Insecure bool
	Timeout  time.Duration
}

func New(opt Options) (*Client, error) {
	if opt.Addr == "" {
		return nil, errors.New("addr is required")
	}
	u, err := url.Parse(opt.Addr)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Host == "" {
		return nil, errors.New("invalid addr")
	}

	t := &http.Transport{}
	if strings.EqualFold(u.Scheme, "https") {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: opt.Insecure} //nolint:gosec
	}

	timeout := opt.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	hc := &http.Client{Transport: t, Timeout: timeout}
	return &Client{baseURL: u, hc: hc}, nil
}

// User is the wire shape of an account as the API reports it.
type User struct {
	Username string   `json:"username"`
	Level    string   `json:"level"`
	Folders  []string `json:"folders"`
	Disabled bool     `json:"disabled"`
	Created  int64    `json:"created_at"`
	Updated  int64    `json:"updated_at"`
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(username, password string) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	req.Username = username
	req.Password = password

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON("POST", "/api/login", req, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// Folders returns the caller's effective folder prefixes along with
// the account level and whether it has admin rights.
func (c *Client) Folders() ([]string, string, bool, error) {
	var resp struct {
		Folders []string `json:"folders"`
		Level   string   `json:"level"`
		Admin   bool     `json:"admin"`
	}
	if err := c.doJSON("GET", "/api/folders", nil, &resp); err != nil {
		return nil, "", false, err
	}
	return resp.Folders, resp.Level, resp.Admin, nil
}

// Authorize asks whether the caller may perform operation on folder.
// A denial is a false return, not an error.
func (c *Client) Authorize(operation, folder string) (bool, error) {
	var req struct {
		Operation string `json:"operation"`
		Folder    string `json:"folder"`
	}
	req.Operation = operation
	req.Folder = folder

	var resp struct {
		Allowed bool `json:"allowed"`
	}
	if err := c.doJSON("POST", "/api/authorize", req, &resp); err != nil {
		return false, err
	}
	return resp.Allowed, nil
}

func (c *Client) ListUsers() ([]User, error) {
	var resp struct {
		Users []User `json:"users"`
	}
	if err := c.doJSON("GET", "/api/admin/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) CreateUser(username, password, level string) (User, error) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Level    string `json:"level"`
	}
	req.Username = username
	req.Password = password
	req.Level = level

	var u User
	if err := c.doJSON("POST", "/api/admin/users", req, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) GetUser(username string) (User, error) {
	var u User
	if err := c.doJSON("GET", "/api/admin/users/"+username, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) DeleteUser(username string) error {
	return c.doJSON("DELETE", "/api/admin/users/"+username, nil, nil)
}

func (c *Client) GrantFolder(username, folder string) (User, error) {
	var req struct {
		Folder string `json:"folder"`
	}
	req.Folder = folder
	var u User
	if err := c.doJSON("POST", "/api/admin/users/"+username+"/folders", req, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) RevokeFolder(username, folder string) (User, error) {
	var req struct {
		Folder string `json:"folder"`
	}
	req.Folder = folder
	var u User
	if err := c.doJSON("DELETE", "/api/admin/users/"+username+"/folders", req, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) SetLevel(username, level string) (User, error) {
	var req struct {
		Level string `json:"level"`
	}
	req.Level = level
	var u User
	if err := c.doJSON("PUT", "/api/admin/users/"+username+"/level", req, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) SetStatus(username string, disabled bool) (User, error) {
	var req struct {
		Disabled bool `json:"disabled"`
	}
	req.Disabled = disabled
	var u User
	if err := c.doJSON("PUT", "/api/admin/users/"+username+"/status", req, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) doJSON(method, path string, body any, out any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(b)
	}
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequest(method, u.String(), buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	req.Header.Set("accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&er)
		if er.Error != "" {
			return errors.New(er.Error)
		}
		return errors.New(resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
