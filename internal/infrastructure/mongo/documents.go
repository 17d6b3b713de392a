package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoJSONPoint は 2dsphere インデックス対象の位置情報。Coordinates は [経度, 緯度] の順。
type GeoJSONPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

func newGeoJSONPoint(lat, lon float64) GeoJSONPoint {
	return GeoJSONPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

// CafeDocument は MongoDB 上でのカフェスキーマ。
type CafeDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OSMID          string             `bson:"osmId"`
	Name           string             `bson:"name"`
	Address        string             `bson:"address"`
	Location       GeoJSONPoint       `bson:"location"`
	Category       string             `bson:"type"`
	Website        string             `bson:"website,omitempty"`
	Phone          string             `bson:"phone,omitempty"`
	OpeningHours   string             `bson:"openingHours,omitempty"`
	WiFi           bool               `bson:"wifi"`
	PowerOutlets   bool               `bson:"powerOutlets"`
	QuietWorkspace bool               `bson:"quietWorkspace"`
	Tags           []string           `bson:"tags,omitempty"`
	UserRating     float64            `bson:"userRating"`
	ReviewCount    int                `bson:"reviewCount"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// RatingDocument はユーザー 1 人がカフェ 1 件に付けた評価。
type RatingDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	CafeID    primitive.ObjectID `bson:"cafeId"`
	Rating    int                `bson:"rating"`
	Review    string             `bson:"review,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// FavoriteDocument はお気に入り登録 1 件を表す。
type FavoriteDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	CafeID    primitive.ObjectID `bson:"cafeId"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// UserDocument は認証用アカウント。
type UserDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Name      string             `bson:"name"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}
