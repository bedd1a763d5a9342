package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"merkado/internal/domain/geo"
	"merkado/internal/domain/model"
	"merkado/internal/domain/storehours"
	repo "merkado/internal/repository"
)

// カート・チェックアウトから営業状態を引くための約束
type StoreStatusReader interface {
	StoreStatus(ctx context.Context, sellerID int64) (storehours.Status, error)
}

// 店舗情報と営業時間
type StoreUsecase struct {
	hours    repo.StoreHoursRepository
	profiles repo.SellerProfileRepository
	users    repo.UserRepository
	clock    Clock
}

func NewStoreUsecase(
	hours repo.StoreHoursRepository,
	profiles repo.SellerProfileRepository,
	users repo.UserRepository,
	clock Clock,
) *StoreUsecase {
	return &StoreUsecase{hours: hours, profiles: profiles, users: users, clock: clock}
}

type UpdateProfileInput struct {
	StoreName     string
	Latitude      *float64
	Longitude     *float64
	PaymentQRPath string
}

// 出品者の設定 → 全体デフォルト → 全曜日休み の順で決める
func (u *StoreUsecase) schedule(ctx context.Context, sellerID int64) (storehours.Schedule, error) {
	rows, err := u.hours.ListBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 && sellerID != model.GlobalStoreHoursSellerID {
		rows, err = u.hours.ListBySellerID(ctx, model.GlobalStoreHoursSellerID)
		if err != nil {
			return nil, err
		}
	}
	return toSchedule(rows), nil
}

// StoreStatus は出品者の存在確認をしない内部用
func (u *StoreUsecase) StoreStatus(ctx context.Context, sellerID int64) (storehours.Status, error) {
	s, err := u.schedule(ctx, sellerID)
	if err != nil {
		return storehours.Status{}, err
	}
	return storehours.Evaluate(s, u.clock.Now()), nil
}

func (u *StoreUsecase) GetHours(ctx context.Context, sellerID int64) (storehours.Schedule, error) {
	if err := u.ensureSeller(ctx, sellerID); err != nil {
		return nil, err
	}
	s, err := u.schedule(ctx, sellerID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}

func (u *StoreUsecase) GetDefaultHours(ctx context.Context) (storehours.Schedule, error) {
	s, err := u.schedule(ctx, model.GlobalStoreHoursSellerID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}

func (u *StoreUsecase) GetStatus(ctx context.Context, sellerID int64) (storehours.Status, error) {
	if err := u.ensureSeller(ctx, sellerID); err != nil {
		return storehours.Status{}, err
	}
	st, err := u.StoreStatus(ctx, sellerID)
	if err != nil {
		return storehours.Status{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return st, nil
}

// SetHours は7曜日分をまとめて置き換える。sellerID=0 は全体デフォルト
func (u *StoreUsecase) SetHours(ctx context.Context, sellerID int64, days storehours.Schedule) (storehours.Schedule, error) {
	if sellerID < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid seller id")
	}
	if err := days.Validate(); err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rows := make([]model.StoreHours, 0, len(days))
	for _, d := range days {
		row := model.StoreHours{
			SellerID:  sellerID,
			DayOfWeek: int(d.DayOfWeek),
			IsOpen:    d.IsOpen,
			OpenTime:  "00:00:00",
			CloseTime: "00:00:00",
		}
		// 休みの日は時刻を正規化できなくても保存できる
		if open, err := storehours.NormalizeClock(d.OpenTime); err == nil {
			row.OpenTime = open
		}
		if closeAt, err := storehours.NormalizeClock(d.CloseTime); err == nil {
			row.CloseTime = closeAt
		}
		rows = append(rows, row)
	}

	if err := u.hours.ReplaceForSeller(ctx, sellerID, rows); err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toSchedule(rows), nil
}

func (u *StoreUsecase) GetProfile(ctx context.Context, sellerID int64) (model.SellerProfile, error) {
	p, err := u.profiles.FindByUserID(ctx, sellerID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.SellerProfile{}, NewHTTPError(http.StatusNotFound, "store profile not found")
	}
	if err != nil {
		return model.SellerProfile{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *StoreUsecase) UpdateProfile(ctx context.Context, sellerID int64, in UpdateProfileInput) (model.SellerProfile, error) {
	if sellerID <= 0 {
		return model.SellerProfile{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.StoreName)
	if name == "" {
		return model.SellerProfile{}, NewHTTPError(http.StatusBadRequest, "store_name is required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return model.SellerProfile{}, NewHTTPError(http.StatusBadRequest, "latitude and longitude must be set together")
	}
	if in.Latitude != nil && !(geo.Point{Latitude: *in.Latitude, Longitude: *in.Longitude}).Valid() {
		return model.SellerProfile{}, NewHTTPError(http.StatusBadRequest, "store location is invalid")
	}

	p, err := u.profiles.Upsert(ctx, model.SellerProfile{
		UserID:        sellerID,
		StoreName:     name,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		PaymentQRPath: strings.TrimSpace(in.PaymentQRPath),
	})
	if err != nil {
		return model.SellerProfile{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *StoreUsecase) ensureSeller(ctx context.Context, sellerID int64) error {
	if sellerID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid seller id")
	}
	user, err := u.users.FindByID(ctx, sellerID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && user.Role != model.RoleSeller) {
		return NewHTTPError(http.StatusNotFound, "store not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 欠けている曜日は休みで埋める
func toSchedule(rows []model.StoreHours) storehours.Schedule {
	s := storehours.AllClosed()
	for _, r := range rows {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			continue
		}
		s[r.DayOfWeek] = storehours.Day{
			DayOfWeek: time.Weekday(r.DayOfWeek),
			IsOpen:    r.IsOpen,
			OpenTime:  r.OpenTime,
			CloseTime: r.CloseTime,
		}
	}
	return s
}
