package cloudfrontcdn

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
)

type mockCloudFrontClient struct {
	err    error
	id     string
	status string

	lastCreate *cloudfront.CreateInvalidationInput
	lastGet    *cloudfront.GetInvalidationInput
}

func (m *mockCloudFrontClient) CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error) {
	m.lastCreate = params
	if m.err != nil {
		return nil, m.err
	}

	return &cloudfront.CreateInvalidationOutput{
		Invalidation: &types.Invalidation{
			Id:     aws.String(m.id),
			Status: aws.String(StatusInProgress),
		},
	}, nil
}

func (m *mockCloudFrontClient) GetInvalidation(ctx context.Context, params *cloudfront.GetInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.GetInvalidationOutput, error) {
	m.lastGet = params
	if m.err != nil {
		return nil, m.err
	}

	return &cloudfront.GetInvalidationOutput{
		Invalidation: &types.Invalidation{
			Id:     params.Id,
			Status: aws.String(m.status),
		},
	}, nil
}
