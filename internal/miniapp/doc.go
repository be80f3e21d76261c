// Package miniapp holds the client-side state machines of the shop mini-app:
// debounced optimistic quantity edits guarded by a request lock, the cart
// total calculation, fragment fetching for the product grid, and the toast
// and badge presenters. Presentation is reached only through small view
// interfaces, so the controllers hold the single source of truth.
package miniapp
