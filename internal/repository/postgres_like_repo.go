package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresLikeRepo はPostgreSQLを使用したいいねリポジトリ。
// 整合性の根拠はlikesテーブルの UNIQUE(user_id, post_id) 制約であり、
// アプリケーション側でのロックは行わない。
type PostgresLikeRepo struct {
	db *sql.DB
}

// NewPostgresLikeRepo はPostgresLikeRepoを生成する。
func NewPostgresLikeRepo(db *sql.DB) *PostgresLikeRepo {
	return &PostgresLikeRepo{db: db}
}

// Toggle は(userID, postID)ペアのいいね状態を単一トランザクション内で反転する。
//
// アルゴリズム:
//  1. ペア行の有無を確認する
//  2. 無ければINSERT ON CONFLICT DO NOTHING。競合（他リクエストが先に挿入）は
//     「既にいいね済み」を意味するため、エラーではなくliked=trueとして扱う
//  3. 有ればDELETE。削除件数0（他リクエストが先に削除）も同様にliked=falseとして扱う
//  4. 同一トランザクション内で件数を再集計してコミットする
//
// クライアント切断等で途中終了した場合はロールバックされ、行と集計が食い違う状態は残らない。
func (r *PostgresLikeRepo) Toggle(ctx context.Context, userID, postID string) (bool, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND post_id = $2)`,
		userID, postID,
	).Scan(&exists)
	if err != nil {
		return false, 0, fmt.Errorf("いいね状態の確認に失敗しました: %w", err)
	}

	var liked bool
	if exists {
		// 削除件数は確認しない。0件なら並行リクエストが先に削除しており、
		// どちらにせよ最終状態は「いいねなし」で一致する
		_, err = tx.ExecContext(ctx,
			`DELETE FROM likes WHERE user_id = $1 AND post_id = $2`,
			userID, postID,
		)
		if err != nil {
			return false, 0, fmt.Errorf("いいねの削除に失敗しました: %w", err)
		}
		liked = false
	} else {
		// ON CONFLICT DO NOTHING: 一意制約違反は「他リクエストが先にいいね済み」であり、
		// エラーとして伝播させず冪等にliked=trueへ収束させる
		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (id, user_id, post_id, created_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, post_id) DO NOTHING`,
			uuid.New().String(), userID, postID, time.Now().UTC(),
		)
		if err != nil {
			return false, 0, fmt.Errorf("いいねの作成に失敗しました: %w", err)
		}
		liked = true
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = $1`,
		postID,
	).Scan(&count)
	if err != nil {
		return false, 0, fmt.Errorf("いいね件数の集計に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return liked, count, nil
}

// CountByPost は投稿のいいね件数を返す。
// 投稿の存在確認は行わず、存在しない投稿は0件として扱う。
func (r *PostgresLikeRepo) CountByPost(ctx context.Context, postID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = $1`,
		postID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("いいね件数の集計に失敗しました: %w", err)
	}
	return count, nil
}

// ExistsByUserAndPost は指定ペアのいいね行が存在するかを返す。
func (r *PostgresLikeRepo) ExistsByUserAndPost(ctx context.Context, userID, postID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND post_id = $2)`,
		userID, postID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("いいね状態の確認に失敗しました: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ LikeRepository = (*PostgresLikeRepo)(nil)
