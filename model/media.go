package model

import "github.com/Leitan123/SmartScholarsPAF/utils"

// MediaURL resolves a media path returned by the backend against the same base
// url the api is served from. Absolute urls are returned untouched.
func MediaURL(baseURL string, path string) string {
	if path == "" || utils.IsAbsoluteUrl(path) {
		return path
	}
	return utils.ConcateUrlBaseAndRelativePath(baseURL, path)
}
