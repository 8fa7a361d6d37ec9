package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("NOTEMEDIA_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("NOTEMEDIA_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "NOTEMEDIA_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"notemedia",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractTool := mcp.NewTool("extract_note_media",
		mcp.WithDescription("List the image, video and live-photo URLs of a Xiaohongshu note. Accepts a note URL, a short link, or the text copied from the app's share sheet."),
		mcp.WithString("url",
			mcp.Description("The note URL (www.xiaohongshu.com/explore/<id> or xhslink.com short link)"),
		),
		mcp.WithString("share_text",
			mcp.Description("Share text containing a note link; used when url is empty"),
		),
		mcp.WithString("mode",
			mcp.Description("'lenient' (default) also resolves blob videos and live photos from page state; 'strict' only returns direct http sources"),
			mcp.Enum("lenient", "strict"),
		),
		mcp.WithBoolean("original_images",
			mcp.Description("Rewrite image renditions to original-quality URLs"),
		),
	)
	s.AddTool(extractTool, handleExtractMedia(newAPIClient(apiURL, apiKey, defaultTimeout)))

	batchTool := mcp.NewTool("batch_extract_media",
		mcp.WithDescription("Extract media URLs from many notes at once. Returns one block per note."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of note URLs"),
		),
		mcp.WithString("mode",
			mcp.Description("'lenient' (default) or 'strict'"),
			mcp.Enum("lenient", "strict"),
		),
		mcp.WithBoolean("original_images",
			mcp.Description("Rewrite image renditions to original-quality URLs"),
		),
	)
	s.AddTool(batchTool, handleBatchExtract(newAPIClient(apiURL, apiKey, batchTimeout), pollInterval))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
