package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// UserDocument is the indexed projection of a user; it never carries secrets.
type UserDocument struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

func DocumentFrom(u *entity.User) UserDocument {
	return UserDocument{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type UserIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{es: es, index: index}
}

func (i *UserIndex) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(DocumentFrom(u))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: i.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index user %s: %s", u.ID, res.Status())
	}
	return nil
}

const usersMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "username":   {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "email":      {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "fullName":   {"type": "text"},
      "avatar":     {"type": "keyword", "index": false},
      "coverImage": {"type": "keyword", "index": false},
      "createdAt":  {"type": "date"},
      "updatedAt":  {"type": "date"}
    }
  }
}`

// EnsureIndex creates the users index with its mapping when it does not exist yet.
func (i *UserIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := i.es.Indices.Exists([]string{i.index}, i.es.Indices.Exists.WithContext(c))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: %s", i.index, res.Status())
	}

	res, err = i.es.Indices.Create(i.index,
		i.es.Indices.Create.WithContext(c),
		i.es.Indices.Create.WithBody(strings.NewReader(usersMapping)))
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", i.index, res.Status())
	}
	return nil
}

// SearchQuery builds a multi_match over username, full name and email.
func SearchQuery(q string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^3", "fullName^2", "email"},
			},
		},
		"size": size,
	}
}

func (i *UserIndex) Search(ctx context.Context, q string, size int) ([]UserDocument, error) {
	b, err := json.Marshal(SearchQuery(q, size))
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := i.es.Search(i.es.Search.WithContext(c), i.es.Search.WithIndex(i.index), i.es.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source UserDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]UserDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
