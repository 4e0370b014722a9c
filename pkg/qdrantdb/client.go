package qdrantdb

import (
	"github.com/qdrant/go-client/qdrant"
)

type ChunkClient struct {
	Client *qdrant.Client
}

func NewClient(host string, port int) (*ChunkClient, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port, // gRPC port
	})
	if err != nil {
		return nil, err
	}
	return &ChunkClient{Client: client}, err
}
