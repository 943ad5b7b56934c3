// skywavectl is the host-side control utility. Its one job today is to
// tell a running station to re-read its track and playlist registries
// after the backing CSV exports change.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "base URL of the running station")
	token := flag.String("token", "", "session token (skips login)")
	username := flag.String("username", "", "host username (used when no token is given)")
	password := flag.String("password", "", "host password (used when no token is given)")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	sessionToken := *token
	if sessionToken == "" {
		if *username == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "skywavectl: need either -token or -username/-password")
			os.Exit(2)
		}
		var err error
		sessionToken, err = login(client, *server, *username, *password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skywavectl: login failed: %v\n", err)
			os.Exit(1)
		}
	}

	result, err := reload(client, *server, sessionToken)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skywavectl: reload failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("reloaded: %d playlists, %d tracks\n", result.Playlists, result.Tracks)
}

func login(client *http.Client, server, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := client.Post(server+"/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Token == "" {
		return "", fmt.Errorf("no token in login response")
	}
	return body.Token, nil
}

type reloadResult struct {
	Playlists int `json:"playlists"`
	Tracks    int `json:"tracks"`
}

func reload(client *http.Client, server, token string) (*reloadResult, error) {
	req, err := http.NewRequest(http.MethodPost, server+"/api/catalog/reload", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var result reloadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
