package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

func main() {
	global := flag.NewFlagSet("modctl", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "panel API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "comments":
		handleComments(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "status":
		handleStatus(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "delete":
		handleDelete(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "audit":
		handleAudit(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "feed":
		handleFeed(*baseURL, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			log.Fatal("email and password are required")
		}

		payload := map[string]string{"email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		invite := fs.String("invite", "", "invite code")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		payload := map[string]string{
			"username":    *username,
			"email":       *email,
			"password":    *password,
			"invite_code": *invite,
		}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/register", "", payload, &resp); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("registered and logged in")
	case "logout":
		token, err := readToken(tokenPath)
		if err == nil && token != "" {
			// best effort server-side invalidation
			_ = doJSON(ctx, client, http.MethodPost, baseURL+"/auth/logout", token, nil, nil)
		}
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: modctl auth <login|register|logout>")
	}
}

func handleComments(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "list":
		fs := flag.NewFlagSet("comments list", flag.ExitOnError)
		filter := fs.String("filter", "all", "status filter (all|pending|approved|rejected)")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/api/comments")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		qv.Set("filter", *filter)
		u.RawQuery = qv.Encode()

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "stats":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/api/stats", token, nil, &resp); err != nil {
			log.Fatalf("stats failed: %v", err)
		}
		printJSON(resp)
	case "refresh":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/refresh", token, nil, &resp); err != nil {
			log.Fatalf("refresh failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: modctl comments <list|stats|refresh>")
	}
}

func handleStatus(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "set":
		fs := flag.NewFlagSet("status set", flag.ExitOnError)
		id := fs.String("id", "", "comment id")
		status := fs.String("status", "", "pending|approved|rejected")
		_ = fs.Parse(args)
		if *id == "" || *status == "" {
			log.Fatal("id and status are required")
		}

		payload := map[string]string{"status": *status}
		var resp map[string]any
		endpoint := baseURL + "/api/comments/" + url.PathEscape(*id) + "/status"
		if err := doJSON(ctx, client, http.MethodPost, endpoint, token, payload, &resp); err != nil {
			log.Fatalf("status set failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: modctl status set -id <comment> -status <value>")
	}
}

func handleDelete(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "request":
		fs := flag.NewFlagSet("delete request", flag.ExitOnError)
		id := fs.String("id", "", "comment id")
		yes := fs.Bool("yes", false, "confirm immediately without a second step")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("id is required")
		}

		var resp struct {
			Token     string `json:"token"`
			ExpiresAt string `json:"expires_at"`
		}
		endpoint := baseURL + "/api/comments/" + url.PathEscape(*id) + "/delete-request"
		if err := doJSON(ctx, client, http.MethodPost, endpoint, token, nil, &resp); err != nil {
			log.Fatalf("delete request failed: %v", err)
		}
		if !*yes {
			fmt.Printf("delete token: %s (expires %s)\n", resp.Token, resp.ExpiresAt)
			fmt.Println("run: modctl delete confirm -token <token>  (or delete cancel)")
			return
		}

		payload := map[string]string{"token": resp.Token}
		var confirmResp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/delete-confirm", token, payload, &confirmResp); err != nil {
			log.Fatalf("delete confirm failed: %v", err)
		}
		printJSON(confirmResp)
	case "confirm":
		fs := flag.NewFlagSet("delete confirm", flag.ExitOnError)
		deleteToken := fs.String("token", "", "delete token from delete request")
		_ = fs.Parse(args)
		if *deleteToken == "" {
			log.Fatal("token is required")
		}

		payload := map[string]string{"token": *deleteToken}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/delete-confirm", token, payload, &resp); err != nil {
			log.Fatalf("delete confirm failed: %v", err)
		}
		printJSON(resp)
	case "cancel":
		fs := flag.NewFlagSet("delete cancel", flag.ExitOnError)
		deleteToken := fs.String("token", "", "delete token from delete request")
		_ = fs.Parse(args)
		if *deleteToken == "" {
			log.Fatal("token is required")
		}

		payload := map[string]string{"token": *deleteToken}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/delete-cancel", token, payload, &resp); err != nil {
			log.Fatalf("delete cancel failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: modctl delete <request|confirm|cancel>")
	}
}

func handleAudit(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "list":
		fs := flag.NewFlagSet("audit list", flag.ExitOnError)
		limit := fs.Int("limit", 50, "page size")
		offset := fs.Int("offset", 0, "offset")
		commentID := fs.String("comment", "", "show trail for a single comment")
		_ = fs.Parse(args)

		if *commentID != "" {
			var resp map[string]any
			endpoint := baseURL + "/api/comments/" + url.PathEscape(*commentID) + "/audit"
			if err := doJSON(ctx, client, http.MethodGet, endpoint, token, nil, &resp); err != nil {
				log.Fatalf("audit list failed: %v", err)
			}
			printJSON(resp)
			return
		}

		u, err := url.Parse(baseURL + "/api/audit")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		qv.Set("limit", fmt.Sprintf("%d", *limit))
		qv.Set("offset", fmt.Sprintf("%d", *offset))
		u.RawQuery = qv.Encode()

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
			log.Fatalf("audit list failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: modctl audit list")
	}
}

func handleFeed(baseURL, sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("feed listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP feed server address")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runFeedTCP(*addr, *pretty); err != nil {
				log.Printf("[feed] disconnected: %v", err)
			}
			time.Sleep(1 * time.Second)
		}
	case "subscribe":
		fs := flag.NewFlagSet("feed subscribe", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(baseURL, "/ws")
			if err != nil {
				log.Fatalf("ws url: %v", err)
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("subscribe failed: %v", err)
		}
	default:
		log.Fatal("usage: modctl feed <listen|subscribe>")
	}
}

func runFeedTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[feed] connected to %s", addr)
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[feed] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.modpanel-token.json"
	}
	return filepath.Join(home, ".modpanel", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("modctl <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  comments list|stats|refresh")
	fmt.Println("  status set -id <comment> -status <value>")
	fmt.Println("  delete request|confirm|cancel")
	fmt.Println("  audit list")
	fmt.Println("  feed listen|subscribe")
}
