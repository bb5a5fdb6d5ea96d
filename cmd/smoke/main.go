// Command smoke runs the chat store endpoints end to end against a running server.
//
//	SMOKE_BASE_URL=http://localhost:3000/api SMOKE_TOKEN=<jwt> go run ./cmd/smoke
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	baseURL = getEnv("SMOKE_BASE_URL", "http://localhost:3000/api")
	token   = os.Getenv("SMOKE_TOKEN")
	client  = &http.Client{Timeout: 60 * time.Second}
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRequest(method, path string, body interface{}) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func call(method, path string, body interface{}) (*envelope, error) {
	req, err := newRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return &env, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, env.Message)
	}
	return &env, nil
}

// streamTurn sends one message and prints the text parts as they arrive.
func streamTurn(chatId, text string) error {
	req, err := newRequest("POST", "/chat", map[string]interface{}{
		"id": chatId,
		"message": map[string]interface{}{
			"id":      fmt.Sprintf("smoke-%d", time.Now().UnixNano()),
			"role":    "user",
			"content": text,
		},
	})
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		code, payload, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch code {
		case "0":
			var delta string
			_ = json.Unmarshal([]byte(payload), &delta)
			fmt.Print(delta)
		case "3":
			return fmt.Errorf("stream error: %s", payload)
		case "d":
			fmt.Println()
			color.White("finish: %s", payload)
		}
	}
	return scanner.Err()
}

func step(title string, fn func() error) {
	color.Yellow("\n%s", title)
	if err := fn(); err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("OK")
}

func main() {
	color.Cyan("Chat backend smoke run against %s", baseURL)
	if token == "" {
		color.Red("SMOKE_TOKEN is not set")
		os.Exit(1)
	}

	var chatId string

	step("1. Create chat", func() error {
		env, err := call("POST", "/chats/v1", nil)
		if err != nil {
			return err
		}
		var created struct {
			Id string `json:"id"`
		}
		if err := json.Unmarshal(env.Data, &created); err != nil {
			return err
		}
		chatId = created.Id
		color.White("chat id: %s", chatId)
		return nil
	})

	step("2. Save transcript", func() error {
		_, err := call("PUT", "/chats/v1/"+chatId+"/messages", map[string]interface{}{
			"messages": []map[string]interface{}{
				{"id": "smoke-1", "role": "user", "content": "ping"},
				{"id": "smoke-2", "role": "assistant", "content": "pong"},
			},
		})
		return err
	})

	step("3. Load transcript", func() error {
		env, err := call("GET", "/chats/v1/"+chatId+"/messages", nil)
		if err != nil {
			return err
		}
		var messages []map[string]interface{}
		if err := json.Unmarshal(env.Data, &messages); err != nil {
			return err
		}
		if len(messages) != 2 {
			return fmt.Errorf("expected 2 messages, got %d", len(messages))
		}
		return nil
	})

	if os.Getenv("SMOKE_STREAM") == "true" {
		step("4. Stream a turn", func() error {
			return streamTurn(chatId, "Say hello in five words.")
		})
	}

	step("5. List chats", func() error {
		_, err := call("GET", "/chats/v1", nil)
		return err
	})

	step("6. Make chat public", func() error {
		_, err := call("PATCH", "/chats/v1/"+chatId+"/visibility", map[string]interface{}{"is_public": true})
		return err
	})

	step("7. Delete chat", func() error {
		_, err := call("DELETE", "/chats/v1/"+chatId, nil)
		return err
	})

	color.Cyan("\nSmoke run finished")
}
