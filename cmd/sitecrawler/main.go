// Command sitecrawler crawls a single-domain website into JSON records for
// the static site renderer.
//
// Usage:
//
//	sitecrawler crawl --config configs/config.yaml
//	sitecrawler verify --sitemap sitemap.xml --content content --images assets/img
package main

func main() {
	Execute()
}
