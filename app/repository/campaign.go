package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
)

// CampaignChanges is a partial campaign update. Nil fields are left untouched.
type CampaignChanges struct {
	Name             *string
	Description      *string
	ShortDescription *string
	Location         *entity.Location
	Contacts         *entity.Contacts
	WorkingTimetable *entity.WorkingTimetable
	SocialsLinks     *[]entity.SocialLink
	PaymentMethods   *[]entity.PaymentMethod
	Facilities       *[]entity.Facility
	Sports           *[]entity.Sport
	Media            *entity.Media
}

func (c CampaignChanges) Empty() bool {
	return c.Name == nil && c.Description == nil && c.ShortDescription == nil &&
		c.Location == nil && c.Contacts == nil && c.WorkingTimetable == nil &&
		c.SocialsLinks == nil && c.PaymentMethods == nil && c.Facilities == nil &&
		c.Sports == nil && c.Media == nil
}

type CampaignRepository struct {
	db DBTX
}

func NewCampaignRepository(db DBTX) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const selectCampaignColumns = `
		SELECT id, user_id, name, description, short_description, location, contacts, working_timetable,
		       socials_links, payment_methods, facilities, sports, media, created_at, updated_at
		FROM campaign_info`

func (r *CampaignRepository) Create(ctx context.Context, campaign *entity.Campaign) error {
	blobs, err := marshalBlobs(
		campaign.Location,
		campaign.Contacts,
		campaign.WorkingTimetable,
		campaign.SocialsLinks,
		campaign.PaymentMethods,
		campaign.Facilities,
		campaign.Sports,
		campaign.Media,
	)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO campaign_info (
			id, user_id, name, description, short_description, location, contacts, working_timetable,
			socials_links, payment_methods, facilities, sports, media, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		campaign.ID,
		campaign.UserID,
		campaign.Name,
		campaign.Description,
		campaign.ShortDescription,
	}
	args = append(args, blobs...)
	args = append(args, campaign.CreatedAt, campaign.UpdatedAt)

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *CampaignRepository) FindAll(ctx context.Context) ([]*entity.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, selectCampaignColumns+`
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := make([]*entity.Campaign, 0)
	for rows.Next() {
		campaign, err := scanCampaign(rows.Scan)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*entity.Campaign, error) {
	return r.findOne(ctx, selectCampaignColumns+`
		WHERE id = ?`, id)
}

func (r *CampaignRepository) FindByUserID(ctx context.Context, userID string) (*entity.Campaign, error) {
	return r.findOne(ctx, selectCampaignColumns+`
		WHERE user_id = ?`, userID)
}

// FindOwnedForUpdate locks the campaign row only when it belongs to userID.
func (r *CampaignRepository) FindOwnedForUpdate(ctx context.Context, id, userID string) (*entity.Campaign, error) {
	return r.findOne(ctx, selectCampaignColumns+`
		WHERE id = ? AND user_id = ?
		FOR UPDATE`, id, userID)
}

func (r *CampaignRepository) Update(ctx context.Context, id string, changes CampaignChanges, now time.Time) error {
	if changes.Empty() {
		return nil
	}

	sets := make([]string, 0, 12)
	args := make([]interface{}, 0, 13)
	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	addBlob := func(column string, value interface{}) error {
		blob, err := marshalBlob(value)
		if err != nil {
			return err
		}
		add(column, blob)
		return nil
	}

	if changes.Name != nil {
		add("name", *changes.Name)
	}
	if changes.Description != nil {
		add("description", *changes.Description)
	}
	if changes.ShortDescription != nil {
		add("short_description", *changes.ShortDescription)
	}

	blobColumns := []struct {
		column string
		set    bool
		value  interface{}
	}{
		{"location", changes.Location != nil, changes.Location},
		{"contacts", changes.Contacts != nil, changes.Contacts},
		{"working_timetable", changes.WorkingTimetable != nil, changes.WorkingTimetable},
		{"socials_links", changes.SocialsLinks != nil, changes.SocialsLinks},
		{"payment_methods", changes.PaymentMethods != nil, changes.PaymentMethods},
		{"facilities", changes.Facilities != nil, changes.Facilities},
		{"sports", changes.Sports != nil, changes.Sports},
		{"media", changes.Media != nil, changes.Media},
	}
	for _, blob := range blobColumns {
		if !blob.set {
			continue
		}
		if err := addBlob(blob.column, blob.value); err != nil {
			return err
		}
	}

	add("updated_at", now)
	args = append(args, id)

	query := `UPDATE campaign_info SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes the campaign only when it belongs to userID and reports
// whether a row was removed.
func (r *CampaignRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM campaign_info WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *CampaignRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Campaign, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	campaign, err := scanCampaign(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

func scanCampaign(scan rowScanner) (*entity.Campaign, error) {
	campaign := &entity.Campaign{}
	var location, contacts, timetable, socials, payments, facilities, sports, media sql.NullString
	if err := scan(
		&campaign.ID,
		&campaign.UserID,
		&campaign.Name,
		&campaign.Description,
		&campaign.ShortDescription,
		&location,
		&contacts,
		&timetable,
		&socials,
		&payments,
		&facilities,
		&sports,
		&media,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	); err != nil {
		return nil, err
	}

	blobs := []struct {
		raw    sql.NullString
		target interface{}
	}{
		{location, &campaign.Location},
		{contacts, &campaign.Contacts},
		{timetable, &campaign.WorkingTimetable},
		{socials, &campaign.SocialsLinks},
		{payments, &campaign.PaymentMethods},
		{facilities, &campaign.Facilities},
		{sports, &campaign.Sports},
		{media, &campaign.Media},
	}
	for _, blob := range blobs {
		if !blob.raw.Valid || blob.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(blob.raw.String), blob.target); err != nil {
			return nil, err
		}
	}

	return campaign, nil
}

// marshalBlob encodes v for a JSON column. Nil pointers and nil slices become NULL.
func marshalBlob(v interface{}) (sql.NullString, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if string(encoded) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(encoded), Valid: true}, nil
}

func marshalBlobs(values ...interface{}) ([]interface{}, error) {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		blob, err := marshalBlob(v)
		if err != nil {
			return nil, err
		}
		out = append(out, blob)
	}
	return out, nil
}
