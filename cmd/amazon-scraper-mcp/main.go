package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// searchRequest mirrors the scraper API request model.
type searchRequest struct {
	Keyword string `json:"keyword"`
	Retry   int    `json:"retry,omitempty"`
}

// searchResponse mirrors the scraper API response model.
type searchResponse struct {
	Success  bool   `json:"success"`
	Count    int    `json:"count"`
	Backend  string `json:"backend"`
	Products []struct {
		Title    string `json:"title"`
		Price    string `json:"price"`
		Rating   string `json:"rating"`
		ImageURL string `json:"image_url"`
		Link     string `json:"link"`
	} `json:"products"`
	Details  string `json:"details"`
	Solution string `json:"solution"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("SCRAPER_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SCRAPER_API_KEY")

	s := server.NewMCPServer(
		"amazon-scraper",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search Amazon for a keyword and return structured product listings (title, price, rating, image, link). Uses a headless browser with a raw-fetch fallback."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("The search keyword"),
		),
		mcp.WithNumber("retry",
			mcp.Description("Rendering-backend retry budget (0-3, default 1)"),
		),
	)
	s.AddTool(searchTool, handleSearch(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keyword, err := request.RequireString("keyword")
		if err != nil {
			return mcp.NewToolResultError("keyword is required"), nil
		}
		retry := request.GetInt("retry", 1)

		body, err := json.Marshal(searchRequest{Keyword: keyword, Retry: retry})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/search", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var searchResp searchResponse
		if err := json.Unmarshal(respBody, &searchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !searchResp.Success {
			errMsg := "search failed"
			if searchResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", searchResp.Error.Code, searchResp.Error.Message)
			}
			if searchResp.Solution != "" {
				errMsg += " — " + searchResp.Solution
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d results for %q (backend: %s)\n\n", searchResp.Count, keyword, searchResp.Backend)
		for i, p := range searchResp.Products {
			fmt.Fprintf(&b, "%d. %s\n   Price: %s", i+1, p.Title, p.Price)
			if p.Rating != "" {
				fmt.Fprintf(&b, " | Rating: %s", p.Rating)
			}
			b.WriteByte('\n')
			if p.Link != "" {
				fmt.Fprintf(&b, "   %s\n", p.Link)
			}
		}

		return mcp.NewToolResultText(b.String()), nil
	}
}
