package page

import (
	"context"
	"encoding/json"
	"fmt"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/z32nissan/CSGOFloat-Extension/internal/bridge"
	"github.com/z32nissan/CSGOFloat-Extension/internal/config"
	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
)

// Events receives what the page reports through the binding
type Events struct {
	Bridge   func(data []byte)
	GetFloat func(listingID string)
	GetAll   func()
}

// bindingPayload is the envelope the relay script sends
type bindingPayload struct {
	Kind      string          `json:"kind"`
	ListingID string          `json:"listingId,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
}

// Chrome is a Document backed by a live browser tab
type Chrome struct {
	tabCtx context.Context
}

// NewAllocator creates a Chrome exec allocator context from the given Config.
func NewAllocator(parent context.Context, cfg config.Config) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1440, 900),
	)
	return chromedp.NewExecAllocator(parent, opts...)
}

// NewChrome wraps a tab context created with chromedp.NewContext
func NewChrome(tabCtx context.Context) *Chrome {
	return &Chrome{tabCtx: tabCtx}
}

// Install registers the binding and injects the companion and relay
// scripts into the current and every future document of the tab.
func (c *Chrome) Install(events Events) error {
	chromedp.ListenTarget(c.tabCtx, func(ev interface{}) {
		called, ok := ev.(*runtime.EventBindingCalled)
		if !ok || called.Name != BindingName {
			return
		}
		// the listener runs on the event loop; never block it
		go dispatch(events, called.Payload)
	})

	return chromedp.Run(c.tabCtx,
		runtime.AddBinding(BindingName),
		addScriptOnNewDocument(companionScript),
		addScriptOnNewDocument(relayScript),
	)
}

// Navigate loads url and waits for the document body
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Post sends a bridge message into the page. It implements bridge.Transport.
func (c *Chrome) Post(ctx context.Context, msg bridge.Message) error {
	var ok bool
	return c.run(ctx, chromedp.Evaluate(fmt.Sprintf(postMessageJS, jsValue(msg)), &ok))
}

func (c *Chrome) HasFloatDiv(ctx context.Context, listingID string) (bool, error) {
	var present bool
	err := c.run(ctx, chromedp.Evaluate(fmt.Sprintf(hasFloatDivJS, jsValue(FloatDivID(listingID))), &present))
	return present, err
}

func (c *Chrome) SetButtonLabel(ctx context.Context, listingID, label string) error {
	var ok bool
	return c.run(ctx, chromedp.Evaluate(
		fmt.Sprintf(setButtonLabelJS, jsValue(FloatDivID(listingID)), jsValue(label)), &ok))
}

func (c *Chrome) SetMessage(ctx context.Context, listingID, message string) error {
	var ok bool
	return c.run(ctx, chromedp.Evaluate(
		fmt.Sprintf(setMessageJS, jsValue(FloatDivID(listingID)), jsValue(message)), &ok))
}

func (c *Chrome) ShowFloat(ctx context.Context, listingID string, info interfaces.ItemInfo) error {
	var ok bool
	return c.run(ctx, chromedp.Evaluate(
		fmt.Sprintf(showFloatJS, jsValue(FloatDivID(listingID)), jsValue(FloatText(info)), jsValue(SeedText(info))), &ok))
}

func (c *Chrome) ListingIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := c.run(ctx, chromedp.Evaluate(listingIDsJS, &ids))
	return ids, err
}

// Scan runs the relay script's row decoration pass
func (c *Chrome) Scan(ctx context.Context) ([]string, error) {
	var added []string
	err := c.run(ctx, chromedp.Evaluate(scanJS, &added))
	return added, err
}

// Ping checks that the tab still evaluates scripts
func (c *Chrome) Ping(ctx context.Context) error {
	var ok bool
	return c.run(ctx, chromedp.Evaluate(`true`, &ok))
}

// run executes actions on the tab, aborting when either the tab or ctx ends
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func addScriptOnNewDocument(source string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := cdppage.AddScriptToEvaluateOnNewDocument(source).Do(ctx); err != nil {
			return fmt.Errorf("add script: %w", err)
		}
		var ok bool
		return chromedp.Evaluate(source, &ok).Do(ctx)
	})
}

func dispatch(events Events, payload string) {
	var p bindingPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		logger.Logger.Warn().Err(err).Msg("Undecodable binding payload")
		return
	}

	switch p.Kind {
	case "bridge":
		if events.Bridge != nil {
			events.Bridge(p.Message)
		}
	case "float":
		if events.GetFloat != nil && p.ListingID != "" {
			events.GetFloat(p.ListingID)
		}
	case "all":
		if events.GetAll != nil {
			events.GetAll()
		}
	default:
		logger.Logger.Debug().Str("kind", p.Kind).Msg("Unknown binding payload")
	}
}

// jsValue renders v as a JavaScript literal
func jsValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
