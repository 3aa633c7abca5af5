package db

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/notewindow/log"
	"github.com/jsphweid/notewindow/model"
	"github.com/pkg/errors"
)

// DynamoDB refuses more keys than this in one BatchGetItem.
const maxBatchKeys = 100

// Client looks up piece provenance in a table keyed by file name (PK). Items
// carry Composer (or Artist), Title and an optional numeric Year.
type Client struct {
	api   dynamodbiface.DynamoDBAPI
	table string
}

func NewClient(endpoint, region, table string) (*Client, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not create a new DynamoDB session")
	}
	return NewClientWithAPI(dynamodb.New(sess), table), nil
}

func NewClientWithAPI(api dynamodbiface.DynamoDBAPI, table string) *Client {
	return &Client{api: api, table: table}
}

func (c *Client) GetSources(filenames []string) (map[string]model.SourceInfo, error) {
	res := make(map[string]model.SourceInfo)

	for start := 0; start < len(filenames); start += maxBatchKeys {
		end := start + maxBatchKeys
		if end > len(filenames) {
			end = len(filenames)
		}
		if err := c.getBatch(filenames[start:end], res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (c *Client) getBatch(filenames []string, res map[string]model.SourceInfo) error {
	var keys []map[string]*dynamodb.AttributeValue
	for _, filename := range filenames {
		keys = append(keys, map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(filename)},
		})
	}

	request := map[string]*dynamodb.KeysAndAttributes{
		c.table: {Keys: keys},
	}
	for len(request) > 0 {
		out, err := c.api.BatchGetItem(&dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return errors.Wrap(err, "error from DynamoDB")
		}
		for _, item := range out.Responses[c.table] {
			pk, info := parseItem(item)
			if pk != "" {
				res[pk] = info
			}
		}
		request = out.UnprocessedKeys
		if len(request) > 0 {
			log.DB.Debugf("Retrying %v unprocessed keys", len(request[c.table].Keys))
		}
	}
	return nil
}

func stringAttr(item map[string]*dynamodb.AttributeValue, name string) string {
	if v, ok := item[name]; ok && v != nil && v.S != nil {
		return *v.S
	}
	return ""
}

func parseItem(item map[string]*dynamodb.AttributeValue) (string, model.SourceInfo) {
	var s model.SourceInfo
	if v, ok := item["Year"]; ok && v != nil && v.N != nil {
		year, _ := strconv.ParseUint(*v.N, 10, 32)
		s.Year = uint(year)
	}
	s.Composer = stringAttr(item, "Composer")
	if s.Composer == "" {
		s.Composer = stringAttr(item, "Artist")
	}
	s.Title = stringAttr(item, "Title")
	return stringAttr(item, "PK"), s
}
