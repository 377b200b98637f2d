// Package transport is the HTTP client for one portal session: cookies
// carried across calls, URL-encoded and multipart bodies, and a
// redirect-disabled path for exchanges whose payload arrives in a 302
// Location header.
//
// One Client is built per workflow run and owns that run's cookie jar.
// Retries default to zero because re-submitting a wizard stage duplicates
// server-side effects; timeouts are per call, so a hung call fails that call
// without hanging the workflow.
package transport
