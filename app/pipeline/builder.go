package pipeline

import (
	"context"
	"fmt"
	"time"

	"forum-sentinel/app/forum"
)

// buildNotification turns one activity into a notification. Answers and
// comments require their parent question, resolved through the cache or
// fetched on a miss; a failed fetch surfaces as MissingDependencyError.
func (r *Reader) buildNotification(ctx context.Context, activity forum.Activity) (Notification, error) {
	username, region := forum.SplitDisplayName(activity.Author.Username)
	postedAt := time.UnixMilli(activity.CreationDate)

	switch activity.Type {
	case forum.TypeQuestion:
		link := fmt.Sprintf("%squestions/%d/%s.html", r.baseURL, activity.ID, activity.Slug)
		return Notification{
			Title:         fmt.Sprintf("%s asked %q", username, activity.Title),
			URL:           link,
			Description:   r.formatter.FormatBody(activity.Body),
			AuthorName:    username,
			AuthorIconURL: forum.AvatarURL(region, username),
			Timestamp:     postedAt,
		}, nil

	case forum.TypeAnswer, forum.TypeComment:
		parent, err := r.resolveParent(ctx, activity)
		if err != nil {
			return Notification{}, err
		}

		link := fmt.Sprintf("%squestions/%d/?childToView=%d#%s-%d",
			r.baseURL, activity.OriginalParentID, activity.ID, activity.Type, activity.ID)

		note := Notification{
			URL:           link,
			AuthorName:    username,
			AuthorIconURL: forum.AvatarURL(region, username),
			Timestamp:     postedAt,
		}

		if activity.Type == forum.TypeAnswer {
			note.Title = fmt.Sprintf("%s answered %q", username, parent.Title)
			note.Fields = []Field{
				{Name: "Question", Value: r.formatter.FormatBody(parent.Body)},
				{Name: "Answer", Value: r.formatter.FormatBody(activity.Body)},
			}
		} else {
			note.Title = fmt.Sprintf("%s commented on %q", username, parent.Title)
			note.Fields = []Field{
				{Name: "Comment", Value: r.formatter.FormatBody(activity.Body)},
			}
		}

		return note, nil

	case forum.TypeArticle:
		link := fmt.Sprintf("%sarticles/%d/", r.baseURL, activity.ID)
		return Notification{
			Title:         fmt.Sprintf("%s posted %q", username, activity.Title),
			URL:           link,
			Description:   r.formatter.FormatBody(activity.Body),
			AuthorName:    username,
			AuthorIconURL: forum.AvatarURL(region, username),
			Timestamp:     postedAt,
		}, nil

	default:
		return Notification{}, &UnknownTypeError{ActivityID: activity.ID, Type: activity.Type}
	}
}

func (r *Reader) resolveParent(ctx context.Context, activity forum.Activity) (forum.Activity, error) {
	if cached, ok := r.cacheGet(activity.OriginalParentID); ok {
		return cached, nil
	}

	parent, err := r.api.GetQuestion(ctx, activity.OriginalParentID)
	if err != nil {
		return forum.Activity{}, &MissingDependencyError{
			ActivityID: activity.ID,
			ParentID:   activity.OriginalParentID,
			Err:        err,
		}
	}

	r.cachePut(parent)
	return parent, nil
}
