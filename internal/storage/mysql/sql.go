package mysql

// -----------------------------------------------------------------------------
// REVIEWS
// -----------------------------------------------------------------------------

const reviewCols = "id, platform, external_id, author, avatar, rating, content, review_date, " +
	"ai_response, user_response, sentiment, profile_url, is_responded"

// Response columns and sentiment stay out of the UPDATE list so a re-sync
// keeps what an operator wrote.
const upsertReviewSQL = `
INSERT INTO reviews
  (id, platform, external_id, author, avatar, rating, content, review_date, profile_url)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  author      = VALUES(author),
  avatar      = VALUES(avatar),
  rating      = VALUES(rating),
  content     = VALUES(content),
  review_date = VALUES(review_date),
  profile_url = VALUES(profile_url)
`

const insertReviewSQL = `
INSERT INTO reviews
  (id, platform, external_id, author, avatar, rating, content, review_date,
   ai_response, user_response, sentiment, profile_url, is_responded)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getReviewSQL = "SELECT " + reviewCols + " FROM reviews WHERE id = ?"

const getReviewByKeySQL = "SELECT " + reviewCols + " FROM reviews WHERE platform = ? AND external_id = ?"

const listReviewsSQL = "SELECT " + reviewCols + " FROM reviews ORDER BY review_date DESC, id DESC"

const listReviewsByPlatformSQL = "SELECT " + reviewCols +
	" FROM reviews WHERE platform = ? ORDER BY review_date DESC, id DESC"

// COALESCE keeps the stored value for fields the reply leaves unset.
const replyReviewSQL = `
UPDATE reviews SET
  user_response = COALESCE(?, user_response),
  ai_response   = COALESCE(?, ai_response),
  is_responded  = COALESCE(?, is_responded)
WHERE id = ?
`

// -----------------------------------------------------------------------------
// PLATFORM INTEGRATIONS
// -----------------------------------------------------------------------------

const platformCols = "platform, is_enabled, credentials, last_sync"

const getPlatformSQL = "SELECT " + platformCols + " FROM platform_integrations WHERE platform = ?"

const listPlatformsSQL = "SELECT " + platformCols + " FROM platform_integrations ORDER BY platform"

const upsertPlatformSQL = `
INSERT INTO platform_integrations (platform, is_enabled, credentials)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  is_enabled  = VALUES(is_enabled),
  credentials = VALUES(credentials)
`

const touchLastSyncSQL = "UPDATE platform_integrations SET last_sync = ? WHERE platform = ?"

// -----------------------------------------------------------------------------
// NFC / QR CARDS
// -----------------------------------------------------------------------------

const cardCols = "id, name, qr_code_url, redirect_url, custom_link, click_count, last_clicked, " +
	"customization_slots, image_type, image_url, created_at"

const insertCardSQL = "INSERT INTO nfc_qr_cards (" + cardCols + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

const getCardSQL = "SELECT " + cardCols + " FROM nfc_qr_cards WHERE id = ?"

const getCardForUpdateSQL = getCardSQL + " FOR UPDATE"

const listCardsSQL = "SELECT " + cardCols + " FROM nfc_qr_cards ORDER BY created_at DESC, id"

const updateCardSQL = `
UPDATE nfc_qr_cards SET
  name = ?, qr_code_url = ?, redirect_url = ?, custom_link = ?,
  customization_slots = ?, image_type = ?, image_url = ?
WHERE id = ?
`

const deleteCardSQL = "DELETE FROM nfc_qr_cards WHERE id = ?"

const recordClickSQL = "UPDATE nfc_qr_cards SET click_count = click_count + 1, last_clicked = ? WHERE id = ?"
