// Package templates holds the templ components served by the web package.
// Edit the .templ files and regenerate with `templ generate`.
package templates
