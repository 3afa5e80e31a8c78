// Package maven 负责与上游 Maven 仓库交互：解析目录页、批量下载并校验、透传 metadata。
package maven

import (
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"

	"github.com/any-hub/maven-hub/internal/config"
)

// anchorPattern 匹配目录页中的 <a href="...">...</a>，不依赖任何 HTML 解析器。
var anchorPattern = regexp.MustCompile(`<a href="(.+?)".*?>(.+?)</a>`)

// Link 是目录页中的一个锚点：href 为链接目标，Text 为展示文本（已解码实体）。
type Link struct {
	Href string
	Text string
}

// ParseLinks 从目录页文本中提取文件链接。
//
// 只保留 href 以展示文本（去掉末尾三个字符，兼容 "name..&gt;" 形式的截断）开头的链接，
// 并丢弃子目录（以 / 结尾）与包含 / 的导航链接。
func ParseLinks(page string) []Link {
	matches := anchorPattern.FindAllStringSubmatch(page, -1)
	links := make([]Link, 0, len(matches))
	for _, match := range matches {
		href := match[1]
		text := html.UnescapeString(match[2])
		guard := text[:max(len(text)-3, 0)]
		if !strings.HasPrefix(href, guard) {
			continue
		}
		if strings.Contains(href, "/") {
			continue
		}
		links = append(links, Link{Href: href, Text: text})
	}
	return links
}

// Filter 描述目录列表中需要排除的文件。
type Filter struct {
	Extensions  []string
	Classifiers []string
}

// NewFilter 由 remote.exclude.* 构建过滤器。
func NewFilter(cfg config.ExcludeConfig) Filter {
	return Filter{
		Extensions:  slices.Clone(cfg.Extensions),
		Classifiers: slices.Clone(cfg.Classifiers),
	}
}

func (f Filter) excludedByExtension(name string) bool {
	for _, ext := range f.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (f Filter) excludedByClassifier(name string) bool {
	for _, classifier := range f.Classifiers {
		if strings.Contains(name, classifier) {
			return true
		}
	}
	return false
}

// Listing 是某个上游仓库对一个目录的文件清单，三组文件名互不相交并保持目录页顺序。
type Listing struct {
	Repo                 string
	Path                 string
	Files                []string
	ExcludedByExtension  []string
	ExcludedByClassifier []string
}

// Classify 按过滤器把链接分为待缓存文件与两类排除文件。扩展名排除优先于 classifier 排除。
func Classify(repo, dir string, links []Link, filter Filter) Listing {
	listing := Listing{Repo: repo, Path: dir}
	for _, link := range links {
		name := link.Href
		switch {
		case filter.excludedByExtension(name):
			listing.ExcludedByExtension = append(listing.ExcludedByExtension, name)
		case filter.excludedByClassifier(name):
			listing.ExcludedByClassifier = append(listing.ExcludedByClassifier, name)
		default:
			listing.Files = append(listing.Files, name)
		}
	}
	return listing
}

// IsEmpty 在没有任何待缓存文件时返回 true。
func (l Listing) IsEmpty() bool {
	return len(l.Files) == 0
}

// Equal 逐项比较仓库、路径与三组文件名。
func (l Listing) Equal(other Listing) bool {
	return l.Repo == other.Repo &&
		l.Path == other.Path &&
		slices.Equal(l.Files, other.Files) &&
		slices.Equal(l.ExcludedByExtension, other.ExcludedByExtension) &&
		slices.Equal(l.ExcludedByClassifier, other.ExcludedByClassifier)
}

func (l Listing) String() string {
	return fmt.Sprintf("%s%s files=%v excluded_ext=%v excluded_classifier=%v",
		l.Repo, l.Path, l.Files, l.ExcludedByExtension, l.ExcludedByClassifier)
}
