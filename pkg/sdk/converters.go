package resultgrid

import (
	"github.com/kailas-cloud/resultgrid/internal/domain/detail"
	"github.com/kailas-cloud/resultgrid/internal/domain/nav"
	"github.com/kailas-cloud/resultgrid/internal/domain/view"
	griduc "github.com/kailas-cloud/resultgrid/internal/usecase/grid"
)

func fromSnapshot(s *griduc.Snapshot) View {
	rows := make([]Row, len(s.Rows))
	for i := range s.Rows {
		rows[i] = fromRowView(&s.Rows[i])
	}
	return View{
		SessionID:   s.SessionID,
		Filters:     s.Filters,
		AllEntities: s.AllEntities,
		Columns:     fromColumns(s.Columns),
		Tree:        fromColumns(s.Tree),
		Checked:     fromColumns(s.Checked),
		Rows:        rows,
		Records:     s.Records,
		Malformed:   s.Malformed,
	}
}

func fromRowView(rv *griduc.RowView) Row {
	cells := make(map[string]Cell, len(rv.Cells))
	for k, c := range rv.Cells {
		cells[k] = Cell{Text: c.Text, Tooltip: c.Tooltip}
	}
	spans := make(map[string]int, len(rv.Spans))
	for k, v := range rv.Spans {
		spans[k] = v
	}
	gid := -1
	if rv.GroupID != nil {
		gid = *rv.GroupID
	}
	return Row{
		Key:        rv.Key,
		PrimaryKey: PrimaryKey{Name: rv.PrimaryKey.Name, Value: rv.PrimaryKey.Value},
		Cells:      cells,
		Spans:      spans,
		Links:      []Link{fromLink(rv.Links[0]), fromLink(rv.Links[1])},
		GroupID:    gid,
		Anchor:     rv.Anchor,
		ShowExpand: rv.Expand.Show,
		Expanded:   rv.Expand.Expanded,
	}
}

func fromColumns(cols []view.Column) []Column {
	if cols == nil {
		return nil
	}
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = Column{
			Title:    c.Title,
			Key:      c.Key,
			DataKey:  c.DataKey,
			Width:    c.Width,
			Visible:  c.Visible,
			Children: fromColumns(c.Children),
		}
	}
	return out
}

func fromLink(l nav.Link) Link {
	return Link{Path: l.Path, Mode: string(l.Mode), State: l.State}
}

func fromDetail(items []detail.Item) []DetailItem {
	if items == nil {
		return nil
	}
	out := make([]DetailItem, len(items))
	for i, it := range items {
		out[i] = DetailItem{
			Key:      it.Key,
			Property: it.Property,
			Value:    it.Value,
			Depth:    it.Depth,
			Children: fromDetail(it.Children),
		}
		if it.Link != nil {
			l := fromLink(*it.Link)
			out[i].Link = &l
		}
	}
	return out
}
