// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"net/url"
	"strconv"
)

// Key prefixes of the public listings. Any write that changes what a public
// listing shows drops both.
const (
	PrefixTemplates = "templates:"
	PrefixTags      = "tags:"
)

// TemplateListKey is the key of one page of the public template listing.
func TemplateListKey(query, topic, tag string, limit, offset int64) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("topic", topic)
	v.Set("tag", tag)
	v.Set("limit", strconv.FormatInt(limit, 10))
	v.Set("offset", strconv.FormatInt(offset, 10))
	return PrefixTemplates + "list:" + v.Encode()
}

// LatestTemplatesKey is the key of the newest public templates.
func LatestTemplatesKey(limit int64) string {
	return PrefixTemplates + "latest:" + strconv.FormatInt(limit, 10)
}

// PopularTemplatesKey is the key of the most submitted public templates.
func PopularTemplatesKey(limit int64) string {
	return PrefixTemplates + "popular:" + strconv.FormatInt(limit, 10)
}

// TagsKey is the key of the tag cloud.
func TagsKey(limit int64) string {
	return PrefixTags + strconv.FormatInt(limit, 10)
}

// InvalidateListings drops every cached public listing.
func InvalidateListings(ctx context.Context, c Cacher) error {
	if err := c.DeleteByPrefix(ctx, PrefixTemplates); err != nil {
		return err
	}
	return c.DeleteByPrefix(ctx, PrefixTags)
}
