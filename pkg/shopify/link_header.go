package shopify

import "regexp"

var linkPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="(\w+)"`)

// ParseLinkHeader 解析 RFC5988 风格的 Link 头
// `<https://x/products.json?page_info=abc>; rel="next", <...>; rel="previous"`
// 返回 rel -> url，同名 rel 以最后一次出现为准
func ParseLinkHeader(header string) map[string]string {
	links := make(map[string]string)
	if header == "" {
		return links
	}
	for _, m := range linkPattern.FindAllStringSubmatch(header, -1) {
		links[m[2]] = m[1]
	}
	return links
}
