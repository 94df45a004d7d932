//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "marketplace-api"
	ConsumerName = "buyer-portal"

	StateOfferOnSale     = "offer 1 of an accepting shop is on sale"
	StateNoPendingOrder  = "buyer 10 has no pending order"
	StatePendingOrder    = "buyer 10 has a pending order"
	StateSupplierPaused  = "offer 1 belongs to a shop that stopped accepting orders"
	StateUnauthenticated = "no account header is sent"
)

const (
	BuyerID       int64 = 10
	SupplierID    int64 = 1
	OfferID       int64 = 1
	OfferQuantity       = 2
)

const (
	ShopName    = "Pact Electronics"
	ProductName = "Pact Phone"
	// OfferPrice is rendered by the API as "12.50".
	OfferPrice = 1250
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the buyer portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCartItemRequest is the body the portal posts to add an offer to the cart.
func ExampleCartItemRequest() map[string]any {
	return map[string]any{
		"offerId":  OfferID,
		"quantity": OfferQuantity,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
