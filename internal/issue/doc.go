// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown help
// pages for the failures users can act on. The CLI prints ActionableError
// messages with their suggestions and renders catalog pages through
// 'dotnetup explain'.
package issue
