package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

var defaultClient = &http.Client{Timeout: 30 * time.Second}

func HttpRequest(ctx context.Context, method, url string, header map[string]string, data interface{}) ([]byte, error) {
	_, body, err := DoRequest(ctx, defaultClient, method, url, header, data)
	return body, err
}

// DoRequest 發送請求並回傳 status code 與 body
func DoRequest(ctx context.Context, client *http.Client, method, url string, header map[string]string, data interface{}) (int, []byte, error) {

	var requestBody io.Reader

	// 序列化參數
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return 0, nil, err
		}
		requestBody = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, requestBody)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, element := range header {
		req.Header.Set(key, element)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}

	// 讀取 body
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
