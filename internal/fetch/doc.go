// Package fetch performs the HTTP GET requests behind both binders.
//
// The client is bound to the origin of the first page it loads and refuses
// cross-origin URLs, matching what an in-page asynchronous request would be
// allowed to do. Identical concurrent requests are collapsed with singleflight,
// bodies are size-limited and decoded to UTF-8, and an optional file cache can
// serve repeated fragment requests.
package fetch
