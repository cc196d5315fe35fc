package config

import (
	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticIndexPrefix prefixes every catalog index name.
func ElasticIndexPrefix() string {
	return GetEnv("ELASTICSEARCH_INDEX_PREFIX", "storefront")
}

// NewElasticClient returns nil without error when ELASTICSEARCH_HOST is unset.
func NewElasticClient() (*elasticsearch.Client, error) {
	host := GetEnv("ELASTICSEARCH_HOST", "")
	if host == "" {
		return nil, nil
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{host},
		Username:  GetEnv("ELASTICSEARCH_USER", ""),
		Password:  GetEnv("ELASTICSEARCH_PASS", ""),
	})
}
