package service

import (
	"context"

	"github.com/lendhub/lending-service/lending/internal/model"
)

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.catalog.CreateBook(ctx, req)
}

func (s *Service) GetBook(ctx context.Context, id int64) (model.Book, error) {
	return s.catalog.GetBook(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context, query string, availableOnly bool) ([]model.Book, error) {
	return s.catalog.ListBooks(ctx, query, availableOnly)
}

func (s *Service) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error) {
	return s.catalog.UpdateBook(ctx, id, req)
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	return s.catalog.DeleteBook(ctx, id)
}

func (s *Service) CreateMember(ctx context.Context, req model.CreateMemberRequest) (model.Member, error) {
	return s.members.CreateMember(ctx, req)
}

func (s *Service) GetMember(ctx context.Context, id int64) (model.Member, error) {
	return s.members.GetMember(ctx, id)
}

func (s *Service) ListMembers(ctx context.Context) ([]model.Member, error) {
	return s.members.ListMembers(ctx)
}

func (s *Service) UpdateMember(ctx context.Context, id int64, req model.UpdateMemberRequest) (model.Member, error) {
	return s.members.UpdateMember(ctx, id, req)
}

func (s *Service) DeleteMember(ctx context.Context, id int64) error {
	return s.members.DeleteMember(ctx, id)
}
