package state

import (
	"encoding/json"
	"log/slog"

	"github.com/hitoshi/paperdeck/internal/model"
)

// snapshotKey はスナップショットを永続化するブリッジ上のキー。
const snapshotKey = "paperdeck/state"

// snapshotVersion は現在のスナップショット形式バージョン。
//
// 形式の変遷:
//
//	v1: user / actions（アイデンティティ非分離のフラットな台帳）
//	v2: actions_by_user 導入、user / actions 廃止
//	v3: notifications_by_user とモデレーション集合を追加
const snapshotVersion = 3

// snapshot は永続化されるストア状態の全体。
// ストアが所有するすべてのフィールドを一貫して永続化する方針をとる。
type snapshot struct {
	Version              int                             `json:"version"`
	Identity             *model.User                     `json:"identity,omitempty"`
	Sessions             map[string]*model.Session       `json:"sessions"`
	Prefs                *model.PreferenceProfile        `json:"prefs,omitempty"`
	ActionsByUser        map[string][]model.Interaction  `json:"actions_by_user"`
	NotificationsByUser  map[string][]model.Notification `json:"notifications_by_user"`
	Moderation           model.ModerationFilters         `json:"moderation"`
	NotificationSettings model.NotificationSettings      `json:"notification_settings"`
	Theme                model.Theme                     `json:"theme"`
	LastViewedIndex      int                             `json:"last_viewed_index"`
}

// defaultSnapshot は空のデフォルトスナップショットを返す。
func defaultSnapshot() *snapshot {
	return &snapshot{
		Version:              snapshotVersion,
		Sessions:             make(map[string]*model.Session),
		ActionsByUser:        make(map[string][]model.Interaction),
		NotificationsByUser:  make(map[string][]model.Notification),
		Moderation:           model.NewModerationFilters(),
		NotificationSettings: model.DefaultNotificationSettings(),
		Theme:                model.ThemeSystem,
	}
}

// encodeSnapshot はスナップショットをJSONへ直列化する。
func encodeSnapshot(s *snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// rawSnapshot はバージョン移行中の中間表現。
type rawSnapshot map[string]json.RawMessage

// rawVersion は中間表現からバージョン番号を読み取る。読めない場合は0。
func rawVersion(raw rawSnapshot) int {
	var v int
	if b, ok := raw["version"]; ok {
		if err := json.Unmarshal(b, &v); err != nil {
			return 0
		}
	}
	return v
}

// upgradeFuncs はバージョンnからn+1への移行関数。
var upgradeFuncs = map[int]func(rawSnapshot) rawSnapshot{
	1: upgradeV1toV2,
	2: upgradeV2toV3,
}

// upgradeV1toV2 はv1スナップショットをv2へ移行する。
// v1のフラットな台帳（actions）はアイデンティティに帰属付けできないため破棄し、
// 空のactions_by_userを合成する。ログイン状態（user）も引き継がない。
func upgradeV1toV2(raw rawSnapshot) rawSnapshot {
	delete(raw, "user")
	delete(raw, "actions")
	if _, ok := raw["actions_by_user"]; !ok {
		raw["actions_by_user"] = json.RawMessage("{}")
	}
	raw["version"] = json.RawMessage("2")
	return raw
}

// upgradeV2toV3 はv2スナップショットをv3へ移行する。
// 通知リストとモデレーション集合を空で合成する。
func upgradeV2toV3(raw rawSnapshot) rawSnapshot {
	if _, ok := raw["notifications_by_user"]; !ok {
		raw["notifications_by_user"] = json.RawMessage("{}")
	}
	if _, ok := raw["moderation"]; !ok {
		raw["moderation"] = json.RawMessage(`{"hidden_paper_ids":{},"blocked_authors":{},"excluded_tags":{}}`)
	}
	raw["version"] = json.RawMessage("3")
	return raw
}

// decodeSnapshot は永続化されたJSONからスナップショットを復元する。
// 旧バージョンは移行チェーンで現行形式へ引き上げ、欠落フィールドは空で合成する。
// 壊れたJSONは破棄し、デフォルトスナップショットを返す。決してパニックしない。
func decodeSnapshot(data []byte, logger *slog.Logger) *snapshot {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("discarding malformed snapshot", slog.String("error", err.Error()))
		return defaultSnapshot()
	}

	v := rawVersion(raw)
	if v <= 0 || v > snapshotVersion {
		logger.Warn("discarding snapshot with unsupported version", slog.Int("version", v))
		return defaultSnapshot()
	}

	for v < snapshotVersion {
		upgrade, ok := upgradeFuncs[v]
		if !ok {
			logger.Warn("missing snapshot upgrade path", slog.Int("from_version", v))
			return defaultSnapshot()
		}
		raw = upgrade(raw)
		v = rawVersion(raw)
	}

	merged, err := json.Marshal(raw)
	if err != nil {
		logger.Warn("discarding unencodable snapshot", slog.String("error", err.Error()))
		return defaultSnapshot()
	}

	snap := defaultSnapshot()
	if err := json.Unmarshal(merged, snap); err != nil {
		logger.Warn("discarding undecodable snapshot", slog.String("error", err.Error()))
		return defaultSnapshot()
	}

	// 欠落フィールドは空で合成する
	if snap.Sessions == nil {
		snap.Sessions = make(map[string]*model.Session)
	}
	if snap.ActionsByUser == nil {
		snap.ActionsByUser = make(map[string][]model.Interaction)
	}
	if snap.NotificationsByUser == nil {
		snap.NotificationsByUser = make(map[string][]model.Notification)
	}
	if snap.Moderation.HiddenPaperIDs == nil {
		snap.Moderation.HiddenPaperIDs = make(map[string]bool)
	}
	if snap.Moderation.BlockedAuthors == nil {
		snap.Moderation.BlockedAuthors = make(map[string]bool)
	}
	if snap.Moderation.ExcludedTags == nil {
		snap.Moderation.ExcludedTags = make(map[string]bool)
	}
	if snap.Theme == "" {
		snap.Theme = model.ThemeSystem
	}
	snap.Version = snapshotVersion
	return snap
}
