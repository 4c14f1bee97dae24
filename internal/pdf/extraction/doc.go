// Package extraction builds the field catalog of a PDF form.
package extraction

/*
Form catalog notes

Fields are read from the AcroForm dictionary referenced by the document
catalog (PDF 1.7 section 12.7.2). The /Fields array holds the root fields;
each field may carry /Kids that are either child fields (they have /T) or
widget annotations of the field itself (no /T).

## Naming

The technical name of a terminal field is its fully qualified name: the /T
entries from the root down, joined with ".". A terminal field without any
/T gets "field_<object number>". When two terminal fields resolve to the
same name the first one in document order wins.

## Inheritance

/FT and /Ff are inheritable (PDF 1.7 table 220). A child without its own
entry takes the nearest ancestor's value.

## Classification

	FT   Ff bit 16 (radio)   Kind
	Tx   -                   text
	Btn  set                 radio
	Btn  clear               checkbox
	Ch   -                   dropdown (combo and list boxes)
	Sig  -                   unknown

## Options

Choice fields list /Opt entries, either plain strings or
[export display] pairs; the display value is kept. Radio groups without
/Opt expose the non-Off names of their widgets' normal appearances.

## Location

The first widget with a /Rect positions the field. Its page comes from the
widget's /P entry, or from the page whose /Annots lists the widget, or is
page 0 for single-page documents. A missing rect or page is reported as
absent; an unreadable rect as failed.
*/
