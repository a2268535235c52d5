package scraper

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockedResourceTypes are aborted before reaching the network. Dropping
// images, fonts, and stylesheets cuts load time and bandwidth without
// changing the page's structure or text content.
var blockedResourceTypes = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeImage:      {},
	proto.NetworkResourceTypeFont:       {},
	proto.NetworkResourceTypeStylesheet: {},
}

// setupHijack installs a request interceptor on the page that aborts the
// blocked resource types and passes every other request through unmodified.
//
// Returns the running HijackRouter so the caller can defer router.Stop().
func setupHijack(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to abort or continue.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, shouldBlock := blockedResourceTypes[ctx.Request.Type()]; shouldBlock {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it must live in its own goroutine.
	// It will exit when router.Stop() is called.
	go router.Run()

	return router
}
