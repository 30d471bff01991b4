package users

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-roster/core/pagination"
	"github.com/asaidimu/go-roster/core/persistence"
	"github.com/asaidimu/go-roster/core/query"
	"github.com/asaidimu/go-roster/core/schema"
	"github.com/asaidimu/go-roster/utils"
	"go.uber.org/zap"
)

// DefaultOrderField orders listings that do not ask for an order.
const DefaultOrderField = "created_at"

// Service implements user registration, lookup and maintenance.
type Service struct {
	store  *persistence.Persistence
	bus    *events.TypedEventBus[UserEvent]
	logger *zap.Logger
}

// NewService creates a service storing users through store. The users and
// profiles schemas must be registered in store's catalog.
func NewService(store *persistence.Persistence, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, name := range []string{Entity, ProfilesEntity} {
		if _, err := store.Schema(name); err != nil {
			return nil, err
		}
	}
	bus, err := newEventBus()
	if err != nil {
		return nil, err
	}
	return &Service{store: store, bus: bus, logger: logger}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func decodeUser(doc schema.Document) (User, error) {
	u, err := utils.MapToStruct[User](doc)
	if err != nil {
		return User{}, fmt.Errorf("failed to decode user: %w", err)
	}
	return u, nil
}

// findUser returns the first user matching filters, or nil.
func findUser(ctx context.Context, store *persistence.Persistence, filters query.Filters, includes ...string) (*User, error) {
	coll, err := store.Collection(Entity)
	if err != nil {
		return nil, err
	}
	res, err := coll.Read(ctx, query.QueryOptions{
		Includes:   includes,
		Filters:    filters,
		Pagination: &pagination.PageOptions{Page: 1, Take: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, nil
	}
	u, err := decodeUser(res.Data[0])
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func byID(id int64) query.Filters {
	return query.Filters{"id": query.Scalar{Value: id}}
}

// Create registers a user and, when the payload carries profile fields, its
// profile.
func (s *Service) Create(ctx context.Context, dto CreateUserDto) (UserResource, error) {
	if issues := dto.Validate(); len(issues) > 0 {
		return UserResource{}, InvalidPayload(issues)
	}
	email := normalizeEmail(dto.Email)
	role := dto.Role
	if role == "" {
		role = RoleUser
	}
	hash, err := HashPassword(dto.Password)
	if err != nil {
		return UserResource{}, err
	}

	var created *User
	err = s.store.Transact(ctx, func(tx *persistence.Persistence) error {
		existing, err := findUser(ctx, tx, query.Filters{"email": query.Scalar{Value: email}})
		if err != nil {
			return err
		}
		if existing != nil {
			return UsedEmail(email)
		}

		coll, err := tx.Collection(Entity)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		doc, err := coll.Create(ctx, map[string]any{
			"email":      email,
			"name":       strings.TrimSpace(dto.Name),
			"password":   hash,
			"role":       string(role),
			"status":     string(StatusCreated),
			"created_at": now,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		id, _ := query.ToFloat64(doc["id"])

		if dto.Bio != "" || dto.Avatar != "" {
			profiles, err := tx.Collection(ProfilesEntity)
			if err != nil {
				return err
			}
			profile := map[string]any{"user_id": int64(id)}
			if dto.Bio != "" {
				profile["bio"] = dto.Bio
			}
			if dto.Avatar != "" {
				profile["avatar"] = dto.Avatar
			}
			if _, err := profiles.Create(ctx, profile); err != nil {
				return err
			}
		}

		created, err = findUser(ctx, tx, byID(int64(id)), ProfileRelation)
		return err
	})
	if err != nil {
		return UserResource{}, err
	}

	resource := NewUserResource(*created)
	s.logger.Info("Created user", zap.Int64("id", created.ID))
	s.emit(EventUserCreated, created.ID, &resource)
	return resource, nil
}

// guardQuery rejects filters, selections, joined selections and orders on
// unknown or hidden fields.
func (s *Service) guardQuery(opts query.QueryOptions) error {
	sc, err := s.store.Schema(Entity)
	if err != nil {
		return err
	}
	if err := query.ValidateFilterKeys(sc, opts.Filters); err != nil {
		return err
	}

	keys := append([]string(nil), opts.Filters.Keys()...)
	keys = append(keys, opts.Selects...)
	for _, o := range opts.Orders {
		keys = append(keys, o.Field)
	}
	var rejected []string
	for _, key := range keys {
		f := sc.FindField(key)
		if f == nil || f.Hidden {
			rejected = append(rejected, key)
		}
	}
	for _, rel := range slices.Sorted(maps.Keys(opts.SelectsWithJoin)) {
		rejected = append(rejected, s.rejectJoinedColumns(sc, rel, opts.SelectsWithJoin[rel])...)
	}
	if len(rejected) > 0 {
		return query.InvalidQueryWhere(rejected...)
	}
	return nil
}

// rejectJoinedColumns returns the "relation.column" keys of columns that the
// related schema does not expose. Nested or unknown relation keys are left to
// the resolver.
func (s *Service) rejectJoinedColumns(sc *schema.SchemaDefinition, rel string, columns []string) []string {
	def, ok := sc.Relation(rel)
	if !ok {
		return nil
	}
	target, err := s.store.Schema(def.Target)
	if err != nil {
		return nil
	}
	var rejected []string
	for _, column := range columns {
		if f := target.FindField(column); f == nil || f.Hidden {
			rejected = append(rejected, rel+"."+column)
		}
	}
	return rejected
}

// FindAll lists one page of users. Without explicit orders the listing is
// sorted by creation time in the page's direction.
func (s *Service) FindAll(ctx context.Context, page pagination.PageOptions, opts query.QueryOptions) (pagination.Page[UserResource], error) {
	if err := s.guardQuery(opts); err != nil {
		return pagination.Page[UserResource]{}, err
	}

	page = page.Normalize()
	opts = opts.Clone()
	if len(opts.Orders) == 0 {
		dir := query.SortDirectionDesc
		if page.Order == pagination.OrderAsc {
			dir = query.SortDirectionAsc
		}
		opts.Orders = []query.Order{{Field: DefaultOrderField, Direction: dir}, {Field: "id", Direction: dir}}
	}
	opts.Pagination = &page

	coll, err := s.store.Collection(Entity)
	if err != nil {
		return pagination.Page[UserResource]{}, err
	}
	res, err := coll.Read(ctx, opts)
	if err != nil {
		return pagination.Page[UserResource]{}, err
	}

	resources := make([]UserResource, 0, len(res.Data))
	for _, doc := range res.Data {
		u, err := decodeUser(doc)
		if err != nil {
			return pagination.Page[UserResource]{}, err
		}
		resources = append(resources, NewUserResource(u))
	}
	return pagination.NewPage(resources, pagination.NewPageMeta(page, res.Count)), nil
}

// FindOne returns the user with id and its profile.
func (s *Service) FindOne(ctx context.Context, id int64) (UserResource, error) {
	u, err := findUser(ctx, s.store, byID(id), ProfileRelation)
	if err != nil {
		return UserResource{}, err
	}
	if u == nil {
		return UserResource{}, NotFoundByID(id)
	}
	return NewUserResource(*u), nil
}

// FindOneBy returns the first user matching every key of where.
func (s *Service) FindOneBy(ctx context.Context, where map[string]any) (UserResource, error) {
	filters := query.FiltersFromMap(where)
	if err := s.guardQuery(query.QueryOptions{Filters: filters}); err != nil {
		return UserResource{}, err
	}
	u, err := findUser(ctx, s.store, filters, ProfileRelation)
	if err != nil {
		return UserResource{}, err
	}
	if u == nil {
		return UserResource{}, query.NotFoundByQuery(where)
	}
	return NewUserResource(*u), nil
}

// FindByEmail returns the stored user, password hash included.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	u, err := findUser(ctx, s.store, query.Filters{"email": query.Scalar{Value: email}})
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, NotFoundByEmail(email)
	}
	return *u, nil
}

// Update applies dto to the user with id.
func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDto) (UserResource, error) {
	if issues := dto.Validate(); len(issues) > 0 {
		return UserResource{}, InvalidPayload(issues)
	}
	if dto.Empty() {
		return UserResource{}, InvalidPayload([]schema.Issue{issue("", "EMPTY_UPDATE", "no fields to update")})
	}
	data, err := utils.StructToMap(dto)
	if err != nil {
		return UserResource{}, err
	}
	if dto.Email != nil {
		data["email"] = normalizeEmail(*dto.Email)
	}
	if dto.Name != nil {
		data["name"] = strings.TrimSpace(*dto.Name)
	}
	data["updated_at"] = time.Now().UTC()

	var updated *User
	err = s.store.Transact(ctx, func(tx *persistence.Persistence) error {
		if dto.Email != nil {
			owner, err := findUser(ctx, tx, query.Filters{"email": query.Scalar{Value: data["email"]}})
			if err != nil {
				return err
			}
			if owner != nil && owner.ID != id {
				return UsedEmail(owner.Email)
			}
		}
		coll, err := tx.Collection(Entity)
		if err != nil {
			return err
		}
		n, err := coll.Update(ctx, persistence.CollectionUpdate{Data: data, Filter: byID(id)})
		if err != nil {
			return err
		}
		if n == 0 {
			return NotFoundByID(id)
		}
		updated, err = findUser(ctx, tx, byID(id), ProfileRelation)
		return err
	})
	if err != nil {
		return UserResource{}, err
	}

	resource := NewUserResource(*updated)
	s.logger.Info("Updated user", zap.Int64("id", id))
	s.emit(EventUserUpdated, id, &resource)
	return resource, nil
}

// Remove deletes the user with id and its profile.
func (s *Service) Remove(ctx context.Context, id int64) error {
	err := s.store.Transact(ctx, func(tx *persistence.Persistence) error {
		profiles, err := tx.Collection(ProfilesEntity)
		if err != nil {
			return err
		}
		if _, err := profiles.Delete(ctx, query.Filters{"user_id": query.Scalar{Value: id}}, false); err != nil {
			return err
		}
		coll, err := tx.Collection(Entity)
		if err != nil {
			return err
		}
		n, err := coll.Delete(ctx, byID(id), false)
		if err != nil {
			return err
		}
		if n == 0 {
			return NotFoundByID(id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Removed user", zap.Int64("id", id))
	s.emit(EventUserDeleted, id, nil)
	return nil
}

// VerifyPassword checks password against the stored hash of u.
func (s *Service) VerifyPassword(u User, password string) error {
	ok, err := VerifyHash(password, u.Password)
	if err != nil {
		return err
	}
	if !ok {
		return IncorrectPassword()
	}
	return nil
}

// Authenticate looks a user up by email and verifies password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (UserResource, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return UserResource{}, err
	}
	if err := s.VerifyPassword(u, password); err != nil {
		return UserResource{}, err
	}
	return NewUserResource(u), nil
}
