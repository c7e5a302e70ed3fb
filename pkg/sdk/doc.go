// Package sdk provides a Go client for the factstore HTTP API.
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey(key))
//
//	created, _ := client.CreateFact(ctx, sdk.CreateFactRequest{
//	    ID:    "btc-etf-inflows",
//	    Title: "Spot Bitcoin ETFs recorded net inflows for six straight weeks",
//	    Tags:  []sdk.Tag{{Name: "bitcoin", Category: "topic"}},
//	})
//
//	page, _ := client.SearchFacts(ctx, sdk.SearchRequest{
//	    Keywords: []string{"bitcoin"},
//	    Statuses: []string{"verified"},
//	})
//
// Errors returned by the service carry the HTTP status and the
// machine-readable error code:
//
//	if sdk.IsNotFound(err) { ... }
package sdk
